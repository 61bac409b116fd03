package domain

const (
	PathFiles          = "/files"
	PathDownload       = "/download"
	ExtensionSeparator = "."
	FormFieldFile      = "file"
	MIMEOctetStream    = "application/octet-stream"
	MIMEJSON           = "application/json"
	MIMEPNG            = "image/png"
)
