package domain

// Source names a data provider that contributed to a TokenRecord.
type Source string

const (
	SourceBasescan    Source = "Basescan"
	SourceDexScreener Source = "DexScreener"
)

// String returns the string representation of Source.
func (s Source) String() string {
	return string(s)
}

// IsValid checks if the source is non-empty.
func (s Source) IsValid() bool {
	return s != ""
}
