package config

import (
	"fmt"
	"strconv"
	"strings"
)

// The set helpers leave dst unchanged when value does not parse.

func setBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	*dst = v
	return nil
}

func setNonNegative(dst *int, key, value string) error {
	v, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0", key)
	}
	*dst = v
	return nil
}

func setFloat(dst *float64, key, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}
	if v < 0 {
		return fmt.Errorf("%s must be >= 0", key)
	}
	*dst = v
	return nil
}

func setRatio(dst *float64, key, value string) error {
	var v float64
	if err := setFloat(&v, key, value); err != nil {
		return err
	}
	if v >= 1 {
		return fmt.Errorf("%s must be in [0, 1)", key)
	}
	*dst = v
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *Config) getPickerField(field string) (string, error) {
	p := &c.Picker
	switch field {
	case "title":
		return p.Title, nil
	case "selectable":
		return strconv.FormatBool(p.Selectable), nil
	case "border":
		return p.Border, nil
	case "width_ratio":
		return formatFloat(p.WidthRatio), nil
	case "width_min":
		return strconv.Itoa(p.WidthMin), nil
	case "width_max":
		return strconv.Itoa(p.WidthMax), nil
	case "height_ratio":
		return formatFloat(p.HeightRatio), nil
	case "height_min":
		return strconv.Itoa(p.HeightMin), nil
	case "height_max":
		return strconv.Itoa(p.HeightMax), nil
	case "preview_ratio":
		return formatFloat(p.PreviewRatio), nil
	case "redraw_interval_ms":
		return strconv.Itoa(p.RedrawIntervalMs), nil
	case "threshold":
		return strconv.Itoa(p.Threshold), nil
	case "scrolloff":
		return strconv.Itoa(p.Scrolloff), nil
	case "head_symbol":
		return p.HeadSymbol, nil
	case "fail_symbol":
		return p.FailSymbol, nil
	case "alt_screen":
		return strconv.FormatBool(p.AltScreen), nil
	default:
		return "", fmt.Errorf("unknown field: picker.%s", field)
	}
}

func (c *Config) setPickerField(field, value string) error {
	p := &c.Picker
	key := "picker." + field
	switch field {
	case "title":
		p.Title = value
	case "selectable":
		return setBool(&p.Selectable, key, value)
	case "border":
		if !isOneOf(value, BorderStyles...) {
			return fmt.Errorf("invalid border: %s (must be one of %s)", value, strings.Join(BorderStyles, ", "))
		}
		p.Border = value
	case "width_ratio":
		return setFloat(&p.WidthRatio, key, value)
	case "width_min":
		return setNonNegative(&p.WidthMin, key, value)
	case "width_max":
		return setNonNegative(&p.WidthMax, key, value)
	case "height_ratio":
		return setFloat(&p.HeightRatio, key, value)
	case "height_min":
		return setNonNegative(&p.HeightMin, key, value)
	case "height_max":
		return setNonNegative(&p.HeightMax, key, value)
	case "preview_ratio":
		return setRatio(&p.PreviewRatio, key, value)
	case "redraw_interval_ms":
		return setNonNegative(&p.RedrawIntervalMs, key, value)
	case "threshold":
		return setNonNegative(&p.Threshold, key, value)
	case "scrolloff":
		return setNonNegative(&p.Scrolloff, key, value)
	case "head_symbol":
		p.HeadSymbol = value
	case "fail_symbol":
		p.FailSymbol = value
	case "alt_screen":
		return setBool(&p.AltScreen, key, value)
	default:
		return fmt.Errorf("unknown field: %s", key)
	}
	return nil
}

func (c *Config) getSourceField(field string) (string, error) {
	s := &c.Source
	switch field {
	case "kind":
		return s.Kind, nil
	case "command":
		return s.Command, nil
	case "path":
		return s.Path, nil
	case "follow":
		return strconv.FormatBool(s.Follow), nil
	case "hidden":
		return strconv.FormatBool(s.Hidden), nil
	case "shell":
		return s.Shell, nil
	case "json_value":
		return s.JSONValue, nil
	case "json_label":
		return s.JSONLabel, nil
	case "json_detail":
		return strings.Join(s.JSONDetail, ","), nil
	default:
		return "", fmt.Errorf("unknown field: source.%s", field)
	}
}

func (c *Config) setSourceField(field, value string) error {
	s := &c.Source
	key := "source." + field
	switch field {
	case "kind":
		if !isOneOf(value, SourceKinds...) {
			return fmt.Errorf("invalid source kind: %s (must be one of %s)", value, strings.Join(SourceKinds, ", "))
		}
		s.Kind = value
	case "command":
		s.Command = value
	case "path":
		s.Path = value
	case "follow":
		return setBool(&s.Follow, key, value)
	case "hidden":
		return setBool(&s.Hidden, key, value)
	case "shell":
		s.Shell = value
	case "json_value":
		s.JSONValue = value
	case "json_label":
		s.JSONLabel = value
	case "json_detail":
		s.JSONDetail = nil
		for _, path := range strings.Split(value, ",") {
			if path = strings.TrimSpace(path); path != "" {
				s.JSONDetail = append(s.JSONDetail, path)
			}
		}
	default:
		return fmt.Errorf("unknown field: %s", key)
	}
	return nil
}

func (c *Config) getPipelineField(field string) (string, error) {
	p := &c.Pipeline
	switch field {
	case "sanitize":
		return strconv.FormatBool(p.Sanitize), nil
	case "redact":
		return strconv.FormatBool(p.Redact), nil
	case "unique":
		return p.Unique, nil
	case "lua_script":
		return p.LuaScript, nil
	case "sort":
		return p.Sort, nil
	case "sort_reverse":
		return strconv.FormatBool(p.SortReverse), nil
	case "sort_locale":
		return p.SortLocale, nil
	case "filter":
		return strconv.FormatBool(p.Filter), nil
	default:
		return "", fmt.Errorf("unknown field: pipeline.%s", field)
	}
}

func (c *Config) setPipelineField(field, value string) error {
	p := &c.Pipeline
	key := "pipeline." + field
	switch field {
	case "sanitize":
		return setBool(&p.Sanitize, key, value)
	case "redact":
		return setBool(&p.Redact, key, value)
	case "unique":
		p.Unique = value
	case "lua_script":
		p.LuaScript = value
	case "sort":
		p.Sort = value
	case "sort_reverse":
		return setBool(&p.SortReverse, key, value)
	case "sort_locale":
		p.SortLocale = value
	case "filter":
		return setBool(&p.Filter, key, value)
	default:
		return fmt.Errorf("unknown field: %s", key)
	}
	return nil
}

func (c *Config) getRenderField(field string) (string, error) {
	switch field {
	case "smart_path":
		return strconv.FormatBool(c.Render.SmartPath), nil
	case "truncate":
		return strconv.FormatBool(c.Render.Truncate), nil
	default:
		return "", fmt.Errorf("unknown field: render.%s", field)
	}
}

func (c *Config) setRenderField(field, value string) error {
	key := "render." + field
	switch field {
	case "smart_path":
		return setBool(&c.Render.SmartPath, key, value)
	case "truncate":
		return setBool(&c.Render.Truncate, key, value)
	default:
		return fmt.Errorf("unknown field: %s", key)
	}
}

func (c *Config) getPreviewField(field string) (string, error) {
	p := &c.Preview
	switch field {
	case "kind":
		return p.Kind, nil
	case "path_attr":
		return p.PathAttr, nil
	case "line_attr":
		return p.LineAttr, nil
	case "column_attr":
		return p.ColumnAttr, nil
	default:
		return "", fmt.Errorf("unknown field: preview.%s", field)
	}
}

func (c *Config) setPreviewField(field, value string) error {
	p := &c.Preview
	switch field {
	case "kind":
		if !isOneOf(value, PreviewKinds...) {
			return fmt.Errorf("invalid preview kind: %s (must be one of %s)", value, strings.Join(PreviewKinds, ", "))
		}
		p.Kind = value
	case "path_attr":
		p.PathAttr = value
	case "line_attr":
		p.LineAttr = value
	case "column_attr":
		p.ColumnAttr = value
	default:
		return fmt.Errorf("unknown field: preview.%s", field)
	}
	return nil
}

func (c *Config) getActionField(field string) (string, error) {
	switch field {
	case "kind":
		return c.Action.Kind, nil
	case "open_command":
		return c.Action.OpenCommand, nil
	case "path_attr":
		return c.Action.PathAttr, nil
	default:
		return "", fmt.Errorf("unknown field: action.%s", field)
	}
}

func (c *Config) setActionField(field, value string) error {
	switch field {
	case "kind":
		if !isOneOf(value, ActionKinds...) {
			return fmt.Errorf("invalid action kind: %s (must be one of %s)", value, strings.Join(ActionKinds, ", "))
		}
		c.Action.Kind = value
	case "open_command":
		c.Action.OpenCommand = value
	case "path_attr":
		c.Action.PathAttr = value
	default:
		return fmt.Errorf("unknown field: action.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func (c *Config) getResumeField(field string) (string, error) {
	switch field {
	case "db_path":
		return c.Resume.DBPath, nil
	case "max_age_days":
		return strconv.Itoa(c.Resume.MaxAgeDays), nil
	default:
		return "", fmt.Errorf("unknown field: resume.%s", field)
	}
}

func (c *Config) setResumeField(field, value string) error {
	key := "resume." + field
	switch field {
	case "db_path":
		c.Resume.DBPath = value
	case "max_age_days":
		return setNonNegative(&c.Resume.MaxAgeDays, key, value)
	default:
		return fmt.Errorf("unknown field: %s", key)
	}
	return nil
}
