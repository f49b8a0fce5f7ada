package client

import (
	"context"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

const uploadTimeout = 2 * time.Minute

// UploadAvatar streams r as the avatar of uid and returns the stored
// image's public URL. The body is never buffered, so callers can observe
// progress through r.
func (c *Client) UploadAvatar(ctx context.Context, uid, filename string, r io.Reader, size int64) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
		h.Set("Content-Type", avatarContentType(filename))
		part, err := mw.CreatePart(h)
		if err != nil {
			pw.CloseWithError(err)
			return
		}
		if _, err := io.Copy(part, r); err != nil {
			pw.CloseWithError(err)
			return
		}
		pw.CloseWithError(mw.Close())
	}()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/users/"+url.PathEscape(uid)+"/avatar", pr)
	if err != nil {
		pr.Close()
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if token := c.accessToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	hc := *c.httpClient
	if hc.Timeout < uploadTimeout {
		hc.Timeout = uploadTimeout
	}
	resp, err := hc.Do(req)
	if err != nil {
		pr.Close()
		return "", err
	}
	defer resp.Body.Close()

	var u User
	if err := decodeResponse(resp, &u); err != nil {
		return "", err
	}
	return u.PhotoURL, nil
}

func avatarContentType(filename string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename)))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}
