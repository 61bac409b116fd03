package router

// View страница, которую рисует UI для маршрута.
type View string

const (
	ViewHome      View = "home"
	ViewUpload    View = "upload"
	ViewShared    View = "shared"
	ViewFileShare View = "file-share"
)

const (
	RouteFiles     = "files"
	RouteUpload    = "upload"
	RouteShared    = "shared"
	RouteFileShare = "file-share"

	ParamFileID = "fileId"
)

// Meta данные маршрута, которые читают хуки.
type Meta struct {
	Title string
}

// Route одна запись таблицы маршрутов.
// Props передаёт параметры пути во view как входные данные.
type Route struct {
	Path  string
	Name  string
	View  View
	Meta  Meta
	Props bool
}

// DefaultRoutes таблица маршрутов приложения.
func DefaultRoutes() []Route {
	return []Route{
		{Path: "/", Name: RouteFiles, View: ViewHome, Meta: Meta{Title: "My Files"}},
		{Path: "/upload", Name: RouteUpload, View: ViewUpload, Meta: Meta{Title: "Upload Files"}},
		{Path: "/shared", Name: RouteShared, View: ViewShared, Meta: Meta{Title: "Shared Files"}},
		{Path: "/share/:" + ParamFileID, Name: RouteFileShare, View: ViewFileShare, Meta: Meta{Title: "Shared File"}, Props: true},
	}
}
