// Package show renders captured raw logs as readable transcripts.
package show

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/hugentobler/ralph/internal/model"
)

// Options defines the configurable parameters for rendering a raw log.
type Options struct {
	Path         string
	Provider     model.Provider
	Sentinel     string
	Wrap         int
	Max          int
	All          bool
	Raw          bool
	ForceColor   bool
	ForceNoColor bool
	Out          io.Writer
	OutFile      *os.File
}

// entry is one renderable unit of the transcript. Raw (non-JSON) lines have
// an empty category.
type entry struct {
	category string
	role     string
	text     string
	matched  bool
}

// Run renders the raw log at opts.Path according to the provided options.
func Run(opts Options) error {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.ForceColor && opts.ForceNoColor {
		return fmt.Errorf("--color and --no-color cannot be used together")
	}

	if opts.Raw {
		return copyFile(opts.Out, opts.Path)
	}

	adapter, err := model.NewAdapter(opts.Provider)
	if err != nil {
		return fmt.Errorf("select adapter: %w", err)
	}

	entries, err := collectEntries(opts, adapter)
	if err != nil {
		return err
	}

	useColor := resolveColorChoice(opts)
	width := determineWidth(opts.OutFile, opts.Wrap)
	for idx, ent := range entries {
		if idx > 0 {
			fmt.Fprintln(opts.Out) //nolint:errcheck
		}
		printEntry(opts.Out, ent, idx+1, width, useColor)
	}

	return nil
}

func collectEntries(opts Options, adapter model.Adapter) ([]entry, error) {
	file, err := os.Open(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer file.Close() //nolint:errcheck

	ring := newEntryRing(opts.Max)
	var entries []entry
	push := func(ent entry) {
		if opts.Max > 0 {
			ring.push(ent)
			return
		}
		entries = append(entries, ent)
	}

	scanner := bufio.NewScanner(file)
	const maxCapacity = 8 * 1024 * 1024
	scanner.Buffer(make([]byte, 1024), maxCapacity)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}

		ent, renderable := buildEntry(line, adapter, opts)
		if !renderable {
			continue
		}
		push(ent)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan log: %w", err)
	}

	if opts.Max > 0 {
		return ring.slice(), nil
	}
	return entries, nil
}

// buildEntry classifies one log line. By default only lines with assistant
// text (and raw passthrough lines) render; --all includes every event with
// its category label.
func buildEntry(line string, adapter model.Adapter, opts Options) (entry, bool) {
	matched := opts.Sentinel != "" && strings.Contains(line, opts.Sentinel)

	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal([]byte(line), &envelope); err != nil {
		return entry{text: line, matched: matched}, true
	}

	if frag, ok := adapter.Extract([]byte(line)); ok {
		return entry{
			category: frag.Category,
			role:     string(frag.Role),
			text:     frag.Text,
			matched:  matched,
		}, true
	}

	if !opts.All {
		return entry{}, false
	}
	category := envelope.Type
	if category == "" {
		category = "event"
	}
	return entry{category: category, matched: matched}, true
}

func printEntry(out io.Writer, ent entry, index int, width int, useColor bool) {
	label := ent.category
	if label == "" {
		label = "raw"
	}
	role := ent.role
	if role == "" {
		role = "-"
	}

	headerPlain := fmt.Sprintf("[#%03d] %s | %s", index, label, role)
	indexText := fmt.Sprintf("#%03d", index)
	labelText := label
	roleText := role
	separator := "|"
	if useColor {
		indexText = colorize(ansiBoldWhite, indexText)
		labelText = colorize(ansiCategory, labelText)
		roleText = colorize(roleColor(ent.role), roleText)
		separator = colorize(ansiSeparator, "|")
	}

	header := fmt.Sprintf("[%s] %s %s %s", indexText, labelText, separator, roleText)
	if ent.matched {
		header += " " + colorizeIf(useColor, ansiDone, "[done]")
	}
	fmt.Fprintln(out, header)                                 //nolint:errcheck
	fmt.Fprintln(out, strings.Repeat("-", len(headerPlain))) //nolint:errcheck

	if ent.text == "" {
		fmt.Fprintln(out, "| (no content)") //nolint:errcheck
		return
	}
	prefix := "| "
	if useColor {
		prefix = colorize(ansiSeparator, "|") + " "
	}
	for _, line := range strings.Split(wrapBody(ent.text, width-2), "\n") {
		fmt.Fprintf(out, "%s%s\n", prefix, line) //nolint:errcheck
	}
}

func wrapBody(text string, width int) string {
	if width <= 0 {
		return text
	}

	var lines []string
	for _, source := range strings.Split(text, "\n") {
		if len(source) <= width {
			lines = append(lines, source)
			continue
		}
		words := strings.Fields(source)
		if len(words) == 0 {
			lines = append(lines, source)
			continue
		}
		current := words[0]
		for _, word := range words[1:] {
			if len(current)+1+len(word) > width {
				lines = append(lines, current)
				current = word
			} else {
				current += " " + word
			}
		}
		lines = append(lines, current)
	}
	return strings.Join(lines, "\n")
}

type entryRing struct {
	data   []entry
	start  int
	length int
}

func newEntryRing(capacity int) *entryRing {
	if capacity <= 0 {
		return &entryRing{}
	}
	return &entryRing{data: make([]entry, capacity)}
}

func (r *entryRing) push(ent entry) {
	if len(r.data) == 0 {
		return
	}
	idx := (r.start + r.length) % len(r.data)
	r.data[idx] = ent
	if r.length < len(r.data) {
		r.length++
		return
	}
	r.start = (r.start + 1) % len(r.data)
}

func (r *entryRing) slice() []entry {
	if r.length == 0 {
		return nil
	}
	result := make([]entry, r.length)
	for i := 0; i < r.length; i++ {
		result[i] = r.data[(r.start+i)%len(r.data)]
	}
	return result
}

func determineWidth(out *os.File, wrap int) int {
	if wrap > 0 {
		return wrap
	}
	if out != nil {
		if w, _, err := term.GetSize(int(out.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 80
}

const (
	ansiReset     = "\x1b[0m"
	ansiBoldWhite = "\x1b[1;97m"
	ansiCategory  = "\x1b[38;5;245m"
	ansiSeparator = "\x1b[38;5;240m"
	ansiAssistant = "\x1b[38;5;44m"
	ansiUser      = "\x1b[38;5;220m"
	ansiDone      = "\x1b[38;5;40m"
)

func colorize(code string, text string) string {
	return code + text + ansiReset
}

func colorizeIf(enabled bool, code string, text string) string {
	if !enabled {
		return text
	}
	return colorize(code, text)
}

func roleColor(role string) string {
	switch model.Role(role) {
	case model.RoleAssistant:
		return ansiAssistant
	case model.RoleUser:
		return ansiUser
	default:
		return ansiSeparator
	}
}

func resolveColorChoice(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func copyFile(dst io.Writer, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close() //nolint:errcheck

	_, err = io.Copy(dst, f)
	return err
}
