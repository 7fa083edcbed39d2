// Package api provides an HTTP client for the field-operations backend.
//
// # Overview
//
// The client covers the small surface the viewer needs: listing the items of
// a gallery, deleting an item, and opening raw upload paths for the media
// loader. Every request carries a User-Agent and, when the injected
// auth.TokenProvider has one, an Authorization: Bearer header.
//
// # Endpoints
//
//   - GET /api/galleries/{id}/items: ordered gallery items
//   - DELETE /api/galleries/{id}/items/{itemID}: remove an item (session required)
//   - GET /<upload prefix>/<path>: raw bytes, via Open
//
// # Error Handling
//
// JSON endpoints return *StatusError for responses >= 400 and wrap transport
// and decode failures with context. Open returns the response untouched so
// the caller can map status codes itself; only transport failures are errors.
//
// # Usage Example
//
//	client, err := api.NewClient(cfg.APIBase, auth.Env("FIELDVIEW_TOKEN"), 0)
//	if err != nil {
//		return err
//	}
//	items, err := client.FetchGallery(ctx, "site-42")
package api
