package speech

import (
	"reflect"
	"testing"
)

func TestParseWAV(t *testing.T) {
	pcm := []byte{0x00, 0x00, 0xff, 0x7f, 0x00, 0x80, 0x00, 0x00}
	wav := EncodeWAV(pcm, 22050, 1)

	info, err := parseWAV(wav)
	if err != nil {
		t.Fatalf("parseWAV() error = %v", err)
	}
	if info.SampleRate != 22050 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Errorf("info = %+v", info)
	}
	if !reflect.DeepEqual(info.Data, pcm) {
		t.Errorf("data = %v, want %v", info.Data, pcm)
	}

	samples := pcmToFloat32(info.Data)
	if samples[0] != 0 || samples[1] <= 0.99 || samples[2] != -1 {
		t.Errorf("samples = %v", samples)
	}
}

func TestParseWAV_Invalid(t *testing.T) {
	tests := map[string][]byte{
		"short":   []byte("RIFF"),
		"not wav": append([]byte("RIFF\x00\x00\x00\x00AVI "), make([]byte, 40)...),
		"no data": append([]byte("RIFF\x00\x00\x00\x00WAVE"), make([]byte, 40)...),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := parseWAV(data); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestIsWAV(t *testing.T) {
	if !IsWAV(EncodeWAV(nil, 16000, 1)) {
		t.Error("EncodeWAV output not recognized")
	}
	if IsWAV([]byte("ID3\x04mp3 data")) {
		t.Error("mp3 recognized as WAV")
	}
}

func TestClampRate(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 1.0},
		{0.2, 0.5},
		{1.25, 1.25},
		{3, 2.0},
	}
	for _, tt := range tests {
		if got := ClampRate(tt.in); got != tt.want {
			t.Errorf("ClampRate(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLanguageOf(t *testing.T) {
	tests := map[string]string{
		"hi-IN": "hi",
		"en_US": "en",
		"TE":    "te",
		"":      "",
	}
	for in, want := range tests {
		if got := LanguageOf(in); got != want {
			t.Errorf("LanguageOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSayVoices(t *testing.T) {
	out := []byte(`Alex                en_US    # Most people recognize me by my voice.
Lekha               hi_IN    # नमस्ते, मेरा नाम लेखा है।
Bad News            en_US    # The light you see at the end of the tunnel
Vani                ta_IN    # வணக்கம்
`)
	voices := parseSayVoices(out)

	tests := map[string]string{
		"en_us": "Alex",
		"en":    "Alex",
		"hi_in": "Lekha",
		"hi":    "Lekha",
		"ta":    "Vani",
	}
	for key, want := range tests {
		if got := voices[key]; got != want {
			t.Errorf("voices[%q] = %q, want %q", key, got, want)
		}
	}
}

func TestExecVoiceArgs(t *testing.T) {
	say := &ExecVoice{engine: sayEngine, rate: 1.5}
	if got, want := say.args("Lekha", "hello"), []string{"-v", "Lekha", "-r", "300", "hello"}; !reflect.DeepEqual(got, want) {
		t.Errorf("say args = %v, want %v", got, want)
	}

	espeak := &ExecVoice{engine: espeakEngine, rate: 0.5}
	if got, want := espeak.args("", "hello"), []string{"-s", "88", "hello"}; !reflect.DeepEqual(got, want) {
		t.Errorf("espeak args = %v, want %v", got, want)
	}
}

func TestExtensionFor(t *testing.T) {
	tests := []struct {
		ct   string
		data []byte
		want string
	}{
		{"audio/mpeg", nil, ".mp3"},
		{"audio/mp3", nil, ".mp3"},
		{"", EncodeWAV(nil, 8000, 1), ".wav"},
		{"audio/wav", nil, ".wav"},
		{"audio/ogg", nil, ".ogg"},
		{"application/octet-stream", nil, ".audio"},
	}
	for _, tt := range tests {
		if got := extensionFor(tt.ct, tt.data); got != tt.want {
			t.Errorf("extensionFor(%q) = %q, want %q", tt.ct, got, tt.want)
		}
	}
}

func TestNewPlayer(t *testing.T) {
	if _, err := NewPlayer("portaudio", ""); err != nil {
		t.Errorf("NewPlayer(portaudio) error = %v", err)
	}
	if _, err := NewPlayer("command", "aplay -q"); err != nil {
		t.Errorf("NewPlayer(command) error = %v", err)
	}
	if _, err := NewPlayer("vinyl", ""); err == nil {
		t.Error("NewPlayer(vinyl) expected error")
	}
}
