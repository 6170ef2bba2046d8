// Package extension classifies file names by extension. The result decides
// whether a file is hashed through the audio normalization path and whether
// the archive builder should skip recompressing it.
package extension

import "strings"

// Kind is the classification of a file name.
type Kind uint8

const (
	None Kind = iota
	AudioMP3
	AudioM4A
	AudioFLAC
	AudioOGG
	AudioOpus
	AudioWMA
	// CompressedBinary marks formats that gain nothing from further
	// compression.
	CompressedBinary
)

var kindNames = map[Kind]string{
	None:             "none",
	AudioMP3:         "mp3",
	AudioM4A:         "m4a",
	AudioFLAC:        "flac",
	AudioOGG:         "ogg",
	AudioOpus:        "opus",
	AudioWMA:         "wma",
	CompressedBinary: "compressed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsAudio reports whether k is one of the audio kinds.
func (k Kind) IsAudio() bool {
	return k >= AudioMP3 && k <= AudioWMA
}

// IsCompressed reports whether k is an already-compressed binary format.
func (k Kind) IsCompressed() bool {
	return k == CompressedBinary
}

// table is matched case-sensitively. Upper-case spellings that show up in
// practice (camera and phone exports) are listed explicitly.
var table = map[string]Kind{
	"mp3":  AudioMP3,
	"MP3":  AudioMP3,
	"m4a":  AudioM4A,
	"flac": AudioFLAC,
	"ogg":  AudioOGG,
	"opus": AudioOpus,
	"wma":  AudioWMA,

	"7z":   CompressedBinary,
	"gz":   CompressedBinary,
	"xz":   CompressedBinary,
	"bz2":  CompressedBinary,
	"tgz":  CompressedBinary,
	"zip":  CompressedBinary,
	"ZIP":  CompressedBinary,
	"rar":  CompressedBinary,
	"zst":  CompressedBinary,
	"lz4":  CompressedBinary,
	"cab":  CompressedBinary,
	"jar":  CompressedBinary,
	"apk":  CompressedBinary,
	"jpg":  CompressedBinary,
	"JPG":  CompressedBinary,
	"jpeg": CompressedBinary,
	"png":  CompressedBinary,
	"PNG":  CompressedBinary,
	"gif":  CompressedBinary,
	"webp": CompressedBinary,
	"heic": CompressedBinary,
	"HEIC": CompressedBinary,
	"mp4":  CompressedBinary,
	"MP4":  CompressedBinary,
	"m4v":  CompressedBinary,
	"mov":  CompressedBinary,
	"MOV":  CompressedBinary,
	"mkv":  CompressedBinary,
	"avi":  CompressedBinary,
	"webm": CompressedBinary,
	"pdf":  CompressedBinary,
	"docx": CompressedBinary,
	"xlsx": CompressedBinary,
	"pptx": CompressedBinary,
}

// Classify returns the Kind of a file name from the characters after its
// last '.'. Only extensions of 2 to 4 characters are considered.
func Classify(name string) Kind {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return None
	}
	ext := name[dot+1:]
	if len(ext) < 2 || len(ext) > 4 {
		return None
	}
	return table[ext]
}
