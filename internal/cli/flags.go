package cli

// Flags holds all command-line flag values
type Flags struct {
	// General flags
	CfgFile  string
	DataDir  string
	Language string

	// Definition feed flags
	Search string
	Sort   string

	// Translation flags
	Translate bool
}

// NewFlags creates a new Flags instance with default values
func NewFlags() *Flags {
	return &Flags{
		Language: "en",
		Sort:     "recent",
	}
}
