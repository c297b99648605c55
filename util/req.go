// Copyright (c) 2025-2026 The Votehom developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package util

import (
	"io"
	"net/http"

	"github.com/gorilla/schema"
)

// ParseGetParams parses the query params from the GET request into
// a struct. This method requires the struct type to be defined
// with `schema` tags.
func ParseGetParams(r *http.Request, dst interface{}) error {
	err := r.ParseForm()
	if err != nil {
		return err
	}

	return schema.NewDecoder().Decode(dst, r.Form)
}

// RespBody returns the response body as a byte slice. Read errors are
// ignored; a partial body is better than no body when assembling error
// context.
func RespBody(r *http.Response) []byte {
	b, _ := io.ReadAll(r.Body)
	return b
}
