package extension

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		want Kind
	}{
		{name: "song.mp3", want: AudioMP3},
		{name: "SONG.MP3", want: AudioMP3},
		{name: "album/track01.flac", want: AudioFLAC},
		{name: "voice.m4a", want: AudioM4A},
		{name: "podcast.opus", want: AudioOpus},
		{name: "backup.tar.gz", want: CompressedBinary},
		{name: "archive.7z", want: CompressedBinary},
		{name: "photo.jpeg", want: CompressedBinary},
		{name: "photo.JPG", want: CompressedBinary},
		{name: "notes.txt", want: None},
		{name: "Song.Mp3", want: None},
		{name: "photo.Jpeg", want: None},
		{name: "README", want: None},
		{name: "trailing.", want: None},
		{name: "single.c", want: None},
		{name: "toolong.jpeg2", want: None},
		{name: "dir.zip/file", want: None},
		{name: `C:\music\track.ogg`, want: AudioOGG},
		{name: ".mp3", want: AudioMP3},
		{name: "", want: None},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.name); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestKind_Predicates(t *testing.T) {
	for _, k := range []Kind{AudioMP3, AudioM4A, AudioFLAC, AudioOGG, AudioOpus, AudioWMA} {
		if !k.IsAudio() {
			t.Errorf("%v.IsAudio() = false, want true", k)
		}
		if k.IsCompressed() {
			t.Errorf("%v.IsCompressed() = true, want false", k)
		}
	}
	if None.IsAudio() || CompressedBinary.IsAudio() {
		t.Error("non-audio kind reported as audio")
	}
	if !CompressedBinary.IsCompressed() {
		t.Error("CompressedBinary.IsCompressed() = false, want true")
	}
}
