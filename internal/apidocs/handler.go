package apidocs

import (
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Handler serves Swagger UI and doc.json for the registered document.
// Mount it on a prefix ending in a slash, for example /api/docs/.
func Handler() http.Handler {
	return httpSwagger.Handler(httpSwagger.URL("doc.json"))
}
