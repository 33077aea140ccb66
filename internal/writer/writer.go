// Package writer implements assembly listing output for the analysis
// results.
package writer

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/z80godisasm/internal/program"
)

const dataBytesPerLine = 8

// commentColumn is the column that address and hex comments start at.
const commentColumn = 32

// Options of the writer.
type Options struct {
	HexComments    bool
	OffsetComments bool
}

// Writer renders a program model as an assembly listing.
type Writer struct {
	app     *program.Program
	options Options
	writer  io.Writer
}

// New creates a new writer.
func New(app *program.Program, mainWriter io.Writer, options Options) *Writer {
	return &Writer{
		app:     app,
		options: options,
		writer:  mainWriter,
	}
}

// Write writes the full listing: origin directive, labels, subroutine
// signature comments, instructions and data byte runs.
func (w *Writer) Write() error {
	if _, err := fmt.Fprintf(w.writer, "        .org $%04x\n", w.app.Origin); err != nil {
		return fmt.Errorf("writing origin: %w", err)
	}

	for i := 0; i < len(w.app.Offsets); i++ {
		offset := w.app.Offsets[i]

		if err := w.writeLabel(offset); err != nil {
			return err
		}

		if offset.IsCode {
			if err := w.writeCode(offset); err != nil {
				return err
			}
			i += len(offset.Data) - 1
			continue
		}

		adjustment, err := w.writeData(i)
		if err != nil {
			return err
		}
		i += adjustment
	}
	return nil
}

// writeLabel writes the label of an offset, preceded by the signature
// comment if a subroutine starts here.
func (w *Writer) writeLabel(offset program.Offset) error {
	if offset.Label == "" {
		return nil
	}

	if _, err := fmt.Fprintln(w.writer); err != nil {
		return fmt.Errorf("writing line: %w", err)
	}

	if sub, ok := w.app.SubroutineAt(offset.Address); ok {
		if _, err := fmt.Fprintf(w.writer, "; %s\n", sub.Signature()); err != nil {
			return fmt.Errorf("writing signature comment: %w", err)
		}
	}

	if _, err := fmt.Fprintf(w.writer, "%s:\n", offset.Label); err != nil {
		return fmt.Errorf("writing label: %w", err)
	}
	return nil
}

// writeCode writes one instruction line with the optional address and hex
// byte comments.
func (w *Writer) writeCode(offset program.Offset) error {
	line := "        " + offset.Code

	comment := w.lineComment(offset)
	if comment != "" {
		if len(line) < commentColumn {
			line += strings.Repeat(" ", commentColumn-len(line))
		}
		line += comment
	}

	if _, err := fmt.Fprintln(w.writer, line); err != nil {
		return fmt.Errorf("writing code line: %w", err)
	}
	return nil
}

func (w *Writer) lineComment(offset program.Offset) string {
	var comments []string

	if w.options.OffsetComments {
		comments = append(comments, fmt.Sprintf("$%04x", offset.Address))
	}
	if w.options.HexComments {
		buf := &strings.Builder{}
		for _, b := range offset.Data {
			fmt.Fprintf(buf, "%02x ", b)
		}
		comments = append(comments, strings.TrimRight(buf.String(), " "))
	}
	if offset.Comment != "" {
		comments = append(comments, offset.Comment)
	}

	if len(comments) == 0 {
		return ""
	}
	return "; " + strings.Join(comments, "  ")
}

// writeData bundles the run of data bytes starting at index into .byte
// lines and returns how many extra offsets were consumed.
func (w *Writer) writeData(index int) (int, error) {
	data := []byte{}
	startAddress := w.app.Offsets[index].Address

	i := index
	for ; i < len(w.app.Offsets); i++ {
		offset := w.app.Offsets[i]
		if offset.IsCode || (i > index && offset.Label != "") {
			break
		}
		data = append(data, offset.Data...)
	}

	for len(data) > 0 {
		toWrite := min(len(data), dataBytesPerLine)

		buf := &strings.Builder{}
		buf.WriteString("        .byte ")
		for j := range toWrite {
			fmt.Fprintf(buf, "$%02x, ", data[j])
		}
		line := strings.TrimRight(buf.String(), ", ")

		if w.options.OffsetComments {
			if len(line) < commentColumn {
				line += strings.Repeat(" ", commentColumn-len(line))
			}
			line += fmt.Sprintf("; $%04x", startAddress)
		}

		if _, err := fmt.Fprintln(w.writer, line); err != nil {
			return 0, fmt.Errorf("writing data line: %w", err)
		}

		startAddress += uint16(toWrite)
		data = data[toWrite:]
	}

	return i - index - 1, nil
}
