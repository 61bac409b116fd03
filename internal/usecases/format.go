package usecases

import (
	"math"
	"strconv"
	"strings"
	"time"

	"fileshare-web/internal/domain"
)

const (
	IconDefault    = "file"
	IconPDF        = "file-pdf"
	IconWord       = "file-word"
	IconExcel      = "file-excel"
	IconPowerPoint = "file-powerpoint"
	IconImage      = "file-image"
	IconVideo      = "file-video"
	IconAudio      = "file-audio"
	IconArchive    = "file-archive"

	sizeBase      = 1024
	sizeZero      = "0 Bytes"
	sizeSeparator = " "
	sizeNegative  = "-"

	uploadedLayout = "2006-01-02 15:04"
)

// iconsByExtension расширения без точки, в нижнем регистре.
var iconsByExtension = map[string]string{
	"pdf":  IconPDF,
	"doc":  IconWord,
	"docx": IconWord,
	"xls":  IconExcel,
	"xlsx": IconExcel,
	"ppt":  IconPowerPoint,
	"pptx": IconPowerPoint,
	"jpg":  IconImage,
	"jpeg": IconImage,
	"png":  IconImage,
	"gif":  IconImage,
	"webp": IconImage,
	"mp4":  IconVideo,
	"mov":  IconVideo,
	"avi":  IconVideo,
	"mp3":  IconAudio,
	"wav":  IconAudio,
	"ogg":  IconAudio,
	"zip":  IconArchive,
	"rar":  IconArchive,
	"7z":   IconArchive,
}

var sizeUnits = []string{"Bytes", "KB", "MB", "GB", "TB"}

// FileIcon выбирает иконку по последнему расширению имени файла.
// "archive.tar.gz" смотрит только на "gz".
func FileIcon(filename string) string {
	idx := strings.LastIndex(filename, domain.ExtensionSeparator)
	if idx < 0 {
		return IconDefault
	}
	if icon, ok := iconsByExtension[strings.ToLower(filename[idx+1:])]; ok {
		return icon
	}
	return IconDefault
}

// FormatFileSize переводит байты в строку вида "1.5 KB".
// единица выбирается как floor(log1024(bytes)), значение округляется до двух знаков.
func FormatFileSize(bytes int64) string {
	if bytes == 0 {
		return sizeZero
	}

	value := float64(bytes)
	sign := ""
	if value < 0 {
		sign = sizeNegative
		value = -value
	}

	// целочисленный подбор вместо math.Log, чтобы 1048576 не превратилось в 1024 KB.
	unit := 0
	threshold := float64(sizeBase)
	for unit < len(sizeUnits)-1 && value >= threshold {
		unit++
		threshold *= sizeBase
	}

	scaled := value / math.Pow(sizeBase, float64(unit))
	rounded := math.Round(scaled*100) / 100
	return sign + strconv.FormatFloat(rounded, 'f', -1, 64) + sizeSeparator + sizeUnits[unit]
}

// FormatUploadedAt показывает время загрузки, если API отдал RFC 3339, иначе строку как есть.
func FormatUploadedAt(raw string) string {
	parsed, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return raw
	}
	return parsed.Format(uploadedLayout)
}
