package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"complaint-chat/internal/service"
)

// writerClipboard hace de portapapeles en terminal: escribe en un archivo o en stdout.
type writerClipboard struct {
	path string
	out  io.Writer
}

func newClipboard(path string) *writerClipboard {
	return &writerClipboard{path: strings.TrimSpace(path), out: os.Stdout}
}

func (c *writerClipboard) WriteText(_ context.Context, text string) error {
	if c.path == "" {
		_, err := fmt.Fprintf(c.out, "[copiado]\n%s\n", text)
		return err
	}
	if err := os.WriteFile(c.path, []byte(text), 0o600); err != nil {
		return fmt.Errorf("write clipboard file: %w", err)
	}
	return nil
}

// readerSpeech simula el dictado leyendo una línea de la entrada.
type readerSpeech struct {
	in  *bufio.Reader
	out io.Writer
}

func newReaderSpeech(in *bufio.Reader, out io.Writer) *readerSpeech {
	return &readerSpeech{in: in, out: out}
}

func (s *readerSpeech) Listen(ctx context.Context) (string, error) {
	if s == nil || s.in == nil {
		return "", service.ErrSpeechUnavailable
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	fmt.Fprint(s.out, "(dictado) > ")
	line, err := s.in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("%w: %v", service.ErrSpeechUnavailable, err)
	}
	return strings.TrimSpace(line), nil
}
