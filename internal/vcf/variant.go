// Package vcf provides VCF file reading and writing.
package vcf

import (
	"strconv"
	"strings"
)

// MissingID is the VCF placeholder for a record without an identifier.
const MissingID = "."

// Variant is a single data line of a VCF file.
type Variant struct {
	Chrom         string // Chromosome name (e.g., "12", "chr12")
	Pos           int64  // 1-based genomic position
	ID            string // Raw ID column (e.g., "rs121913529" or "rs1;rs2")
	Ref           string // Reference allele
	Alt           string // Alternate allele(s), comma separated
	Qual          string // QUAL column as written
	Filter        string // FILTER column
	RawInfo       string // INFO column as written
	SampleColumns string // FORMAT and sample columns, tab separated
}

// HasID reports whether the ID column holds an identifier.
func (v *Variant) HasID() bool {
	return v.ID != "" && v.ID != MissingID
}

// String formats the variant as a VCF data line without a trailing newline.
func (v *Variant) String() string {
	var b strings.Builder
	b.Grow(64 + len(v.RawInfo) + len(v.SampleColumns))

	b.WriteString(v.Chrom)
	b.WriteByte('\t')
	b.WriteString(strconv.FormatInt(v.Pos, 10))
	for _, f := range []string{v.ID, v.Ref, v.Alt, v.Qual, v.Filter, v.RawInfo} {
		b.WriteByte('\t')
		if f == "" {
			f = "."
		}
		b.WriteString(f)
	}
	if v.SampleColumns != "" {
		b.WriteByte('\t')
		b.WriteString(v.SampleColumns)
	}
	return b.String()
}
