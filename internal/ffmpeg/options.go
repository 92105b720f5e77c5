package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType represents a strongly typed FFmpeg input option
type OptionType string

// FFmpeg option constants
const (
	OptionGeneratePTS        OptionType = "genpts"
	OptionIgnoreDTS          OptionType = "igndts"
	OptionIgnoreErrors       OptionType = "ignore_err"
	OptionWallclockTimestamp OptionType = "wallclock_ts"
	OptionThreadQueue1024    OptionType = "thread_queue_1024"
	OptionThreadQueue4096    OptionType = "thread_queue_4096"
	OptionLowLatency         OptionType = "low_latency"
)

// DefaultBinary is the ffmpeg executable looked up on PATH.
const DefaultBinary = "ffmpeg"

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
)

// Option describes an input flag with metadata
type Option struct {
	Key            OptionType      `json:"key" yaml:"key"`
	Name           string          `json:"name" yaml:"name"`
	Description    string          `json:"description" yaml:"description"`
	Category       OptionCategory  `json:"category" yaml:"category"`
	AppDefault     bool            `json:"app_default" yaml:"app_default"`
	ExclusiveGroup *ExclusiveGroup `json:"exclusive_group,omitempty" yaml:"exclusive_group,omitempty"`
	ConflictsWith  []OptionType    `json:"conflicts_with,omitempty" yaml:"conflicts_with,omitempty"`
}

func group(g ExclusiveGroup) *ExclusiveGroup { return &g }

// AllOptions contains every input option the snapshot builder understands
var AllOptions = []Option{
	{
		Key:           OptionGeneratePTS,
		Name:          "Generate PTS",
		Description:   "Generate presentation timestamps for devices that omit them",
		Category:      CategoryTiming,
		ConflictsWith: []OptionType{OptionWallclockTimestamp},
	},
	{
		Key:         OptionIgnoreDTS,
		Name:        "Ignore DTS",
		Description: "Ignore decode timestamps from devices with broken clocks",
		Category:    CategoryErrorHandle,
	},
	{
		Key:         OptionIgnoreErrors,
		Name:        "Ignore Errors",
		Description: "Decode the frame despite stream errors",
		Category:    CategoryErrorHandle,
	},
	{
		Key:           OptionWallclockTimestamp,
		Name:          "Wallclock Timestamps",
		Description:   "Use wallclock as timestamps",
		Category:      CategoryTiming,
		ConflictsWith: []OptionType{OptionGeneratePTS},
	},
	{
		Key:            OptionThreadQueue1024,
		Name:           "Large Thread Queue",
		Description:    "Use 1024 thread queue size",
		Category:       CategoryPerformance,
		AppDefault:     true,
		ExclusiveGroup: group(GroupThreadQueue),
	},
	{
		Key:            OptionThreadQueue4096,
		Name:           "Extra Large Thread Queue",
		Description:    "Use 4096 thread queue size (for problematic devices)",
		Category:       CategoryPerformance,
		ExclusiveGroup: group(GroupThreadQueue),
	},
	{
		Key:         OptionLowLatency,
		Name:        "Low Latency Mode",
		Description: "Take the first frame the device delivers",
		Category:    CategoryPerformance,
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

// ParseOptions converts configured option keys, rejecting unknown keys.
func ParseOptions(keys []string) ([]OptionType, error) {
	options := make([]OptionType, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if GetOptionByKey(OptionType(key)) == nil {
			return nil, fmt.Errorf("unknown ffmpeg option %q", key)
		}
		options = append(options, OptionType(key))
	}
	return options, nil
}

// ValidateOptions checks for conflicts and exclusive group violations
func ValidateOptions(selectedOptions []OptionType) error {
	exclusiveGroups := make(map[ExclusiveGroup][]OptionType)

	for _, optionKey := range selectedOptions {
		option := GetOptionByKey(optionKey)
		if option == nil {
			continue
		}

		if option.ExclusiveGroup != nil {
			exclusiveGroups[*option.ExclusiveGroup] = append(exclusiveGroups[*option.ExclusiveGroup], optionKey)
		}
	}

	for group, options := range exclusiveGroups {
		if len(options) > 1 {
			var optionNames []string
			for _, opt := range options {
				if option := GetOptionByKey(opt); option != nil {
					optionNames = append(optionNames, option.Name)
				}
			}
			return fmt.Errorf("multiple options from exclusive group '%s' selected: %s", group, strings.Join(optionNames, ", "))
		}
	}

	selectedSet := make(map[OptionType]bool)
	for _, opt := range selectedOptions {
		selectedSet[opt] = true
	}

	for _, optionKey := range selectedOptions {
		option := GetOptionByKey(optionKey)
		if option == nil {
			continue
		}

		for _, conflictOpt := range option.ConflictsWith {
			if selectedSet[conflictOpt] {
				conflictName := string(conflictOpt)
				if conflictOption := GetOptionByKey(conflictOpt); conflictOption != nil {
					conflictName = conflictOption.Name
				}
				return fmt.Errorf("option '%s' conflicts with '%s'", option.Name, conflictName)
			}
		}
	}

	return nil
}

// GetDefaultOptions returns the options that are enabled by default
func GetDefaultOptions() []OptionType {
	var defaults []OptionType
	for _, option := range AllOptions {
		if option.AppDefault {
			defaults = append(defaults, option.Key)
		}
	}
	return defaults
}

// inputArgs renders options that go before -i.
func inputArgs(options []OptionType) []string {
	var args []string
	var fflags []string

	for _, option := range options {
		switch option {
		case OptionGeneratePTS:
			fflags = append(fflags, "+genpts")
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
			args = append(args, "-flags", "+low_delay")
		}
	}

	if len(fflags) > 0 {
		args = append(args, "-fflags", strings.Join(fflags, ""))
	}
	return args
}
