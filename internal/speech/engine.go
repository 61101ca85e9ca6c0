package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ErrUnsupported is returned when no speech engine is available.
var ErrUnsupported = errors.New("text-to-speech is not supported on this system")

// Options controls voice parameters. Rate, Pitch and Volume use the 0..2
// scale where 1 is the engine's normal setting.
type Options struct {
	Lang   string
	Voice  string
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultOptions returns the narration defaults.
func DefaultOptions() Options {
	return Options{Lang: "en-IN", Rate: 0.9, Pitch: 1, Volume: 1}
}

// ResultsOptions returns the slower pace used on the results screen.
func ResultsOptions() Options {
	o := DefaultOptions()
	o.Rate = 0.8
	return o
}

// Voice is an installed voice reported by an engine.
type Voice struct {
	Name string
	Lang string
}

// Engine turns text into a speech process.
type Engine interface {
	Name() string
	Command(ctx context.Context, text string, opts Options) *exec.Cmd
	Voices(ctx context.Context) ([]Voice, error)
}

// voiceHints are matched in order against voice names when no voice
// speaks the requested language.
var voiceHints = []string{"india", "indian", "ravi", "heera", "nandini", "swara"}

// PickVoice chooses a voice for lang: an exact language match first, then
// a Hindi voice, then a name hint.
func PickVoice(voices []Voice, lang string) (Voice, bool) {
	norm := func(s string) string { return strings.ToLower(strings.ReplaceAll(s, "_", "-")) }
	for _, v := range voices {
		if norm(v.Lang) == norm(lang) {
			return v, true
		}
	}
	for _, v := range voices {
		if strings.HasPrefix(norm(v.Lang), "hi-in") {
			return v, true
		}
	}
	for _, hint := range voiceHints {
		for _, v := range voices {
			if strings.Contains(strings.ToLower(v.Name), hint) {
				return v, true
			}
		}
	}
	return Voice{}, false
}

// DetectEngine returns the named engine, or the first one found on PATH
// when name is empty or "auto".
func DetectEngine(name string) (Engine, error) {
	candidates := []string{"espeak-ng", "espeak", "say"}
	if name != "" && name != "auto" {
		candidates = []string{name}
	}
	for _, c := range candidates {
		path, err := exec.LookPath(c)
		if err != nil {
			continue
		}
		if c == "say" {
			return &sayEngine{bin: path}, nil
		}
		return &espeakEngine{bin: path}, nil
	}
	return nil, ErrUnsupported
}

const (
	espeakBaseWPM = 175
	sayBaseWPM    = 175
)

// espeakEngine drives espeak or espeak-ng.
type espeakEngine struct {
	bin string
}

func (e *espeakEngine) Name() string { return "espeak" }

func (e *espeakEngine) Command(ctx context.Context, text string, opts Options) *exec.Cmd {
	voice := opts.Voice
	if voice == "" {
		voice = strings.ToLower(opts.Lang)
	}
	args := []string{
		"-v", voice,
		"-s", strconv.Itoa(int(espeakBaseWPM * orOne(opts.Rate))),
		"-p", strconv.Itoa(clamp(int(50*orOne(opts.Pitch)), 0, 99)),
		"-a", strconv.Itoa(clamp(int(100*orOne(opts.Volume)), 0, 200)),
		"--", text,
	}
	return exec.CommandContext(ctx, e.bin, args...)
}

// Voices parses `espeak --voices` output: Pty Language Age/Gender VoiceName File ...
func (e *espeakEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.bin, "--voices").Output()
	if err != nil {
		return nil, fmt.Errorf("list espeak voices: %w", err)
	}
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	first := true
	for sc.Scan() {
		if first {
			first = false
			continue
		}
		fields := strings.Fields(sc.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{Lang: fields[1], Name: fields[3]})
	}
	return voices, sc.Err()
}

// sayEngine drives the macOS say command.
type sayEngine struct {
	bin string
}

func (e *sayEngine) Name() string { return "say" }

func (e *sayEngine) Command(ctx context.Context, text string, opts Options) *exec.Cmd {
	args := []string{"-r", strconv.Itoa(int(sayBaseWPM * orOne(opts.Rate)))}
	if opts.Voice != "" {
		args = append(args, "-v", opts.Voice)
	}
	args = append(args, "--", text)
	return exec.CommandContext(ctx, e.bin, args...)
}

// Voices parses `say -v ?` output: Name  lang_REGION  # sample
func (e *sayEngine) Voices(ctx context.Context) ([]Voice, error) {
	out, err := exec.CommandContext(ctx, e.bin, "-v", "?").Output()
	if err != nil {
		return nil, fmt.Errorf("list say voices: %w", err)
	}
	var voices []Voice
	sc := bufio.NewScanner(bytes.NewReader(out))
	for sc.Scan() {
		line, _, _ := strings.Cut(sc.Text(), "#")
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		lang := fields[len(fields)-1]
		name := strings.Join(fields[:len(fields)-1], " ")
		voices = append(voices, Voice{Name: name, Lang: lang})
	}
	return voices, sc.Err()
}

func orOne(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
