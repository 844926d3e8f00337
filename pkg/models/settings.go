package models

// Settings is the small persisted configuration object mutated only through
// operator commands.
type Settings struct {
	ArchiveDays         int   `json:"archiveDays"`
	EmojisMode          bool  `json:"emojisMode"`
	GroupLogRotateBytes int64 `json:"groupLogRotateBytes"`
}

func DefaultSettings() Settings {
	return Settings{
		ArchiveDays:         7,
		GroupLogRotateBytes: 5 * 1024 * 1024,
	}
}
