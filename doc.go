// Package multipart is a streaming parser for HTTP multipart/* message
// bodies (RFC 7578 / RFC 2046): a request body arrives as a lazy sequence
// of byte chunks, and Parse yields a lazy sequence of parts, each exposing
// its own headers and its own payload byte stream, without ever buffering
// a whole part — let alone a whole request — in memory.
//
//	session, err := multipart.Parse(ctx, multipart.FromHTTPRequest(req, 0))
//	if err != nil {
//		return err
//	}
//	defer session.Close()
//	for part, err := range session.Parts() {
//		if err != nil {
//			return err
//		}
//		if part.IsFile() {
//			saveUpload(part.Filename(), part.Body())
//		}
//	}
package multipart
