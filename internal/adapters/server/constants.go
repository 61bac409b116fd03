package server

const (
	LogRequest           = "Request handled"
	ParamID              = "id"
	PathUpload           = "/upload"
	PathDelete           = "/files/:" + ParamID + "/delete"
	PathQRCode           = "/qr.png"
	PathHealth           = "/health"
	PathMetrics          = "/metrics"
	RedirectPath         = "/"
	HeaderReferer        = "Referer"
	StatusHealthy        = "healthy"
	templateLayout       = "layout"
	templateLayoutFile   = "templates/layout.html"
	templatePageTemplate = "templates/%s.html"
	templateError        = "error"
	templateNotFound     = "not-found"
)
