package fileapi

const (
	OperationList    = "list"
	OperationGet     = "get"
	OperationDelete  = "delete"
	OperationUpload  = "upload"
	OutcomeSuccess   = "success"
	OutcomeNetwork   = "network_error"
	OutcomeHTTP      = "http_error"
	OutcomeDecode    = "decode_error"
	LogFetchFiles    = "Error fetching files"
	LogFetchFile     = "Error fetching file"
	LogDeleteFile    = "Error deleting file"
	LogUploadFile    = "Error uploading file"
	HeaderAccept     = "Accept"
	HeaderCType      = "Content-Type"
	HeaderCDisp      = "Content-Disposition"
	noID             = 0
	metricsNamespace = "fileshare"
	metricsSubsystem = "api"
)
