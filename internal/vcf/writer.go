package vcf

import (
	"bufio"
	"io"
)

// Writer writes VCF header lines and records unchanged.
type Writer struct {
	w           *bufio.Writer
	headerLines []string
}

// NewWriter creates a VCF writer that re-emits the given header lines.
func NewWriter(w io.Writer, headerLines []string) *Writer {
	return &Writer{
		w:           bufio.NewWriter(w),
		headerLines: headerLines,
	}
}

// WriteHeader writes the header lines (## meta lines and #CHROM).
func (vw *Writer) WriteHeader() error {
	for _, line := range vw.headerLines {
		if _, err := vw.w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Write writes a single record as a VCF data line.
func (vw *Writer) Write(v *Variant) error {
	if _, err := vw.w.WriteString(v.String()); err != nil {
		return err
	}
	return vw.w.WriteByte('\n')
}

// Flush flushes buffered output to the underlying writer.
func (vw *Writer) Flush() error {
	return vw.w.Flush()
}
