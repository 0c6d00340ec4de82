package constants

import "strings"

// DocumentKind is the logical kind of an ingestible document.
type DocumentKind string

const (
	KindText        DocumentKind = "TEXT"
	KindPDF         DocumentKind = "PDF"
	KindImage       DocumentKind = "IMAGE"
	KindUnsupported DocumentKind = ""
)

// MaxDocumentBytes is the hard ingestion size ceiling.
const MaxDocumentBytes = 50 * 1024 * 1024

// Extraction method identifiers. Stored in results and notes, so the exact
// strings are stable.
const (
	MethodDirectText   = "direct_text"
	MethodTesseractOCR = "tesseract_ocr"
	MethodPDFText      = "pdf_text"
	MethodPDFTextOCR   = "pdf_text+ocr"
)

// MethodTextEncoding names the fallback-decode method for a given encoding,
// e.g. "text_latin-1".
func MethodTextEncoding(encoding string) string {
	return "text_" + encoding
}

var extToKind = map[string]DocumentKind{
	"pdf":  KindPDF,
	"txt":  KindText,
	"md":   KindText,
	"jpg":  KindImage,
	"jpeg": KindImage,
	"png":  KindImage,
	"gif":  KindImage,
}

var extToContentType = map[string]string{
	"pdf":  "application/pdf",
	"txt":  "text/plain",
	"md":   "text/plain",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}

// MapExtToKind classifies a file extension. Unknown extensions map to
// KindUnsupported; there is no other failure mode.
func MapExtToKind(ext string) DocumentKind {
	return extToKind[NormalizeExt(ext)]
}

// ContentTypeForExt returns the MIME type for a supported extension, or
// application/octet-stream for anything else.
func ContentTypeForExt(ext string) string {
	if ct, ok := extToContentType[NormalizeExt(ext)]; ok {
		return ct
	}
	return "application/octet-stream"
}

// SupportedContentTypes lists the MIME types the pipeline accepts.
func SupportedContentTypes() []string {
	seen := map[string]struct{}{}
	var out []string
	for _, ext := range []string{"pdf", "txt", "md", "jpg", "jpeg", "png", "gif"} {
		ct := extToContentType[ext]
		if _, ok := seen[ct]; ok {
			continue
		}
		seen[ct] = struct{}{}
		out = append(out, ct)
	}
	return out
}
