package services

import (
	"encoding/json"
	"mime"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

const maxStoredBaseBytes = 100

// decodeUploadName recovers UTF-8 names that arrive RFC 2047 encoded or as
// UTF-8 bytes mis-decoded as ISO-8859-1.
func decodeUploadName(name string) string {
	if strings.HasPrefix(name, "=?") {
		if decoded, err := new(mime.WordDecoder).DecodeHeader(name); err == nil {
			name = decoded
		}
	}

	highLatin1 := false
	for _, r := range name {
		if r > 0xff {
			return name
		}
		if r >= 0x80 {
			highLatin1 = true
		}
	}
	if !highLatin1 {
		return name
	}

	raw, err := charmap.ISO8859_1.NewEncoder().String(name)
	if err != nil || !utf8.ValidString(raw) {
		return name
	}
	return raw
}

// displayName strips any client-side directory from an upload name.
func displayName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == "/" {
		return "file"
	}
	return name
}

var reservedNameChars = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", `"`, "_", "/", "_", `\`, "_", "|", "_", "?", "_", "*", "_",
)

func sanitizeFilename(name string) string {
	name = reservedNameChars.Replace(displayName(name))
	name = strings.Trim(name, " .")
	if name == "" {
		return "file"
	}
	return name
}

// storedName namespaces a sanitized name as base-<unixmillis>-<random8><ext>.
func storedName(sanitized string, now time.Time) string {
	ext := filepath.Ext(sanitized)
	base := strings.TrimSuffix(sanitized, ext)
	if len(base) > maxStoredBaseBytes {
		cut := maxStoredBaseBytes
		for cut > 0 && !utf8.RuneStart(base[cut]) {
			cut--
		}
		base = base[:cut]
	}
	if base == "" {
		base = "file"
	}
	return base + "-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + uuid.NewString()[:8] + strings.ToLower(ext)
}

func blobKey(prefix string, name string, now time.Time) string {
	return path.Join(prefix, now.Format("2006"), now.Format("01"), name)
}

func isFileExtensionAllowed(fileName string, allowed []string) bool {
	if len(allowed) == 0 {
		return true
	}

	fileExt := strings.ToLower(filepath.Ext(fileName))
	for _, ext := range allowed {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "*" {
			return true
		}
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if normalized == fileExt {
			return true
		}
	}

	return false
}

var mimeTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
	".pdf":  "application/pdf",
	".txt":  "text/plain; charset=utf-8",
	".hwp":  "application/x-hwp",
	".mp4":  "video/mp4",
	".mp3":  "audio/mpeg",
	".zip":  "application/zip",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":  "application/vnd.ms-powerpoint",
	".pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// detectMimeType prefers the extension table, then the client header.
func detectMimeType(name string, declared string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mt, ok := mimeTypes[ext]; ok {
		return mt
	}
	if mt := mime.TypeByExtension(ext); mt != "" {
		return mt
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// ParseTags accepts a JSON string array or a comma separated list.
func ParseTags(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []string{}
	}
	var tags []string
	if strings.HasPrefix(raw, "[") {
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return normalizeTags(tags)
		}
	}
	return normalizeTags(strings.Split(raw, ","))
}

func normalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.Join(strings.Fields(tag), " ")
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}
