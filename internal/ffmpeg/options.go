package ffmpeg

import (
	"fmt"
	"slices"
	"strings"
)

// OptionType represents a strongly typed FFmpeg input option
type OptionType string

// FFmpeg option constants
const (
	OptionGeneratePTS        OptionType = "genpts"
	OptionDiscardCorrupt     OptionType = "discardcorrupt"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionIgnoreErrors       OptionType = "ignore_err"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionAvoidNegativeTS    OptionType = "avoid_negative_ts"
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionThreadQueue4096    OptionType = "thread_queue_4096"
	OptionLowLatency         OptionType = "low_latency"
	OptionCopyTimestamps     OptionType = "copyts"
)

// OptionCategory represents option categories
type OptionCategory string

const (
	CategoryTiming      OptionCategory = "Timing"
	CategoryErrorHandle OptionCategory = "Error Handling"
	CategoryPerformance OptionCategory = "Performance"
)

// ExclusiveGroup represents a group of mutually exclusive options
type ExclusiveGroup string

const (
	GroupThreadQueue ExclusiveGroup = "thread_queue"
	GroupTimestamps  ExclusiveGroup = "timestamps"
)

// Option describes one input tolerance or timing flag.
type Option struct {
	Key            OptionType      `json:"key"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       OptionCategory  `json:"category"`
	AppDefault     bool            `json:"app_default"`               // Application default
	FFmpegDefault  string          `json:"ffmpeg_default"`            // FFmpeg's actual default value
	ExclusiveGroup *ExclusiveGroup `json:"exclusive_group,omitempty"` // Group for mutually exclusive options
	ConflictsWith  []OptionType    `json:"conflicts_with,omitempty"`  // Options that may conflict
	AfterInput     bool            `json:"after_input,omitempty"`     // Emitted after -i rather than before
}

func exclusive(g ExclusiveGroup) *ExclusiveGroup { return &g }

// AllOptions is the option table in emission order.
var AllOptions = []Option{
	{
		Key:           OptionGeneratePTS,
		Name:          "Generate PTS",
		Description:   "Regenerate missing presentation timestamps",
		Category:      CategoryTiming,
		AppDefault:    true,
		FFmpegDefault: "disabled",
		ConflictsWith: []OptionType{OptionWallclockTimestamp},
	},
	{
		Key:           OptionDiscardCorrupt,
		Name:          "Discard Corrupt",
		Description:   "Drop packets flagged corrupt instead of failing",
		Category:      CategoryErrorHandle,
		AppDefault:    true,
		FFmpegDefault: "disabled",
	},
	{
		Key:           OptionIgnoreDTS,
		Name:          "Ignore DTS",
		Description:   "Ignore decode timestamp gaps in damaged files",
		Category:      CategoryErrorHandle,
		AppDefault:    true,
		FFmpegDefault: "disabled",
	},
	{
		Key:           OptionIgnoreErrors,
		Name:          "Ignore Errors",
		Description:   "Continue decoding despite bitstream errors",
		Category:      CategoryErrorHandle,
		AppDefault:    true,
		FFmpegDefault: "disabled",
	},
	{
		Key:            OptionWallclockTimestamp,
		Name:           "Wallclock Timestamps",
		Description:    "Use wallclock as timestamps for live inputs with broken clocks",
		Category:       CategoryTiming,
		FFmpegDefault:  "disabled",
		ExclusiveGroup: exclusive(GroupTimestamps),
		ConflictsWith:  []OptionType{OptionGeneratePTS},
	},
	{
		Key:           OptionAvoidNegativeTS,
		Name:          "Avoid Negative Timestamps",
		Description:   "Shift output timestamps so they start at zero",
		Category:      CategoryTiming,
		FFmpegDefault: "auto",
		AfterInput:    true,
	},
	{
		Key:            OptionThreadQueue1024,
		Name:           "Large Thread Queue",
		Description:    "Use 1024 packet input queue",
		Category:       CategoryPerformance,
		FFmpegDefault:  "8",
		ExclusiveGroup: exclusive(GroupThreadQueue),
	},
	{
		Key:            OptionThreadQueue4096,
		Name:           "Extra Large Thread Queue",
		Description:    "Use 4096 packet input queue for bursty network sources",
		Category:       CategoryPerformance,
		FFmpegDefault:  "8",
		ExclusiveGroup: exclusive(GroupThreadQueue),
	},
	{
		Key:           OptionLowLatency,
		Name:          "Low Latency Mode",
		Description:   "Disable input buffering",
		Category:      CategoryPerformance,
		FFmpegDefault: "disabled",
	},
	{
		Key:            OptionCopyTimestamps,
		Name:           "Copy Timestamps",
		Description:    "Preserve source timestamps and start at zero",
		Category:       CategoryTiming,
		FFmpegDefault:  "disabled",
		ExclusiveGroup: exclusive(GroupTimestamps),
		AfterInput:     true,
	},
}

// GetOptionByKey returns an option by its key
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// GetOptionsByCategory returns options grouped by category
func GetOptionsByCategory() map[OptionCategory][]Option {
	categories := make(map[OptionCategory][]Option)
	for _, option := range AllOptions {
		categories[option.Category] = append(categories[option.Category], option)
	}
	return categories
}

// GetExclusiveGroups returns options grouped by their exclusive groups
func GetExclusiveGroups() map[ExclusiveGroup][]Option {
	groups := make(map[ExclusiveGroup][]Option)
	for _, option := range AllOptions {
		if option.ExclusiveGroup != nil {
			groups[*option.ExclusiveGroup] = append(groups[*option.ExclusiveGroup], option)
		}
	}
	return groups
}

// ValidateOptions checks for unknown keys, conflicts and exclusive group violations
func ValidateOptions(selectedOptions []OptionType) error {
	exclusiveGroups := make(map[ExclusiveGroup][]OptionType)

	for _, optionKey := range selectedOptions {
		option := GetOptionByKey(optionKey)
		if option == nil {
			return fmt.Errorf("%w: unknown option %q", ErrInvalidOption, optionKey)
		}

		if option.ExclusiveGroup != nil {
			exclusiveGroups[*option.ExclusiveGroup] = append(exclusiveGroups[*option.ExclusiveGroup], optionKey)
		}
	}

	// Check if multiple options from same exclusive group are selected
	for group, options := range exclusiveGroups {
		if len(options) > 1 {
			var optionNames []string
			for _, opt := range options {
				optionNames = append(optionNames, GetOptionByKey(opt).Name)
			}
			return fmt.Errorf("%w: multiple options from exclusive group '%s' selected: %s",
				ErrInvalidOption, group, strings.Join(optionNames, ", "))
		}
	}

	// Check for conflicting options
	selectedSet := make(map[OptionType]bool)
	for _, opt := range selectedOptions {
		selectedSet[opt] = true
	}

	for _, optionKey := range selectedOptions {
		option := GetOptionByKey(optionKey)
		for _, conflictOpt := range option.ConflictsWith {
			if selectedSet[conflictOpt] {
				return fmt.Errorf("%w: option '%s' conflicts with '%s'",
					ErrInvalidOption, option.Name, GetOptionByKey(conflictOpt).Name)
			}
		}
	}

	return nil
}

// DefaultInputOptions returns the options that are enabled by default:
// genpts, discardcorrupt, igndts and ignore_err.
func DefaultInputOptions() []OptionType {
	var defaults []OptionType
	for _, option := range AllOptions {
		if option.AppDefault {
			defaults = append(defaults, option.Key)
		}
	}
	return defaults
}

// ApplyInputOptions renders the options that belong before -i. Format flags
// are merged into a single -fflags argument; output is in table order
// regardless of selection order.
func ApplyInputOptions(options []OptionType) []string {
	var fflags []string
	var args []string

	for _, option := range AllOptions {
		if !slices.Contains(options, option.Key) {
			continue
		}
		switch option.Key {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
		case OptionDiscardCorrupt:
			fflags = append(fflags, "+discardcorrupt")
		case OptionIgnoreDTS:
			fflags = append(fflags, "+igndts")
		case OptionIgnoreErrors:
			args = append(args, "-err_detect", "ignore_err")
		case OptionWallclockTimestamp:
			args = append(args, "-use_wallclock_as_timestamps", "1")
		case OptionThreadQueue1024:
			args = append(args, "-thread_queue_size", "1024")
		case OptionThreadQueue4096:
			args = append(args, "-thread_queue_size", "4096")
		case OptionLowLatency:
			fflags = append(fflags, "+nobuffer")
			args = append(args, "-flags", "low_delay")
		}
	}

	if len(fflags) > 0 {
		args = append([]string{"-fflags", strings.Join(fflags, "")}, args...)
	}
	return args
}

// ApplyOutputOptions renders the selected options that belong after -i.
func ApplyOutputOptions(options []OptionType) []string {
	var args []string
	for _, option := range AllOptions {
		if !option.AfterInput || !slices.Contains(options, option.Key) {
			continue
		}
		switch option.Key {
		case OptionCopyTimestamps:
			args = append(args, "-copyts", "-start_at_zero")
		case OptionAvoidNegativeTS:
			args = append(args, "-avoid_negative_ts", "make_zero")
		}
	}
	return args
}
