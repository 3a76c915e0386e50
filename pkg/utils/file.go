package utils

import (
	"io"
	"net/http"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/heic": true,
}

// SniffImage reads the first 512 bytes of r and reports the detected content type and
// whether it is an accepted image type. The reader is rewound when it is seekable.
func SniffImage(r io.ReadSeeker) (string, bool) {
	buff := make([]byte, 512)
	n, err := r.Read(buff)
	if err != nil && err != io.EOF {
		return "", false
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return "", false
	}

	contentType := http.DetectContentType(buff[:n])
	if contentType == "application/octet-stream" && isHEIC(buff[:n]) {
		contentType = "image/heic"
	}
	return contentType, allowedImageTypes[contentType]
}

// isHEIC checks the ISO-BMFF brand of phone camera photos, which
// http.DetectContentType does not know.
func isHEIC(b []byte) bool {
	if len(b) < 12 || string(b[4:8]) != "ftyp" {
		return false
	}
	switch string(b[8:12]) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
		return true
	}
	return false
}
