package errors

// Messages returned to callers. They never carry upstream status or body.
const (
	MsgInvalidBody            = "Request body must be a JSON object."
	MsgSubmitNotConfigured    = "Submission endpoint is not configured."
	MsgSubmitFailed           = "Failed to submit data."
	MsgProvideIdentifier      = "Provide either nysid or bookAndCase."
	MsgNoMatch                = "No matching PIC found."
	MsgLookupFailed           = "Unable to retrieve PIC details."
	MsgDirectoryNotConfigured = "Directory lookup is not configured."
	MsgRefineNotConfigured    = "Message refinement is not configured."
	MsgRefineFailed           = "Failed to refine message."
	MsgTextRequired           = "Text is required."
	MsgSimulatedSubmission    = "Simulated submission successful"
)
