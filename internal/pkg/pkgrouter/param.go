package pkgrouter

import (
	"context"

	"github.com/julienschmidt/httprouter"
)

// GetParam returns the path parameter key of the current route.
func GetParam(ctx context.Context, key string) string {
	return httprouter.ParamsFromContext(ctx).ByName(key)
}
