// Package config loads rule pairs from files and renders parsed rules back out.
package config

import (
	"github.com/habitat-network/redirector/internal/rules"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// RuleConfig is one unparsed from/to pair.
type RuleConfig struct {
	From string `mapstructure:"from" yaml:"from"`
	To   string `mapstructure:"to"   yaml:"to"`
}

// RulesFile is the layout of a rules file:
//
//	rules:
//	  - from: /api/
//	    to: http://localhost:8080/
//	  - from: /
//	    to: file://./dist/|./dist/index.html
type RulesFile struct {
	Rules []RuleConfig `mapstructure:"rules" yaml:"rules"`
}

// LoadRulesFile reads the rules in path. The format (yaml, json, toml, ...) follows the
// file extension.
func LoadRulesFile(path string) ([]RuleConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "reading rules file %s", path)
	}
	cfgs, err := RulesFromViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding rules file %s", path)
	}
	return cfgs, nil
}

// RulesFromViper decodes the rules held by v. Unknown keys are rejected.
func RulesFromViper(v *viper.Viper) ([]RuleConfig, error) {
	var f RulesFile
	err := v.Unmarshal(&f, func(dc *mapstructure.DecoderConfig) {
		dc.ErrorUnused = true
	})
	if err != nil {
		return nil, err
	}
	return f.Rules, nil
}

// Merge lays flag pairs out before file rules, each keeping its own order.
func Merge(froms, tos []string, fileRules []RuleConfig) ([]string, []string) {
	outFroms := append([]string(nil), froms...)
	outTos := append([]string(nil), tos...)
	for _, r := range fileRules {
		outFroms = append(outFroms, r.From)
		outTos = append(outTos, r.To)
	}
	return outFroms, outTos
}

// FromRules renders rs in match order with destinations in their normalized form.
func FromRules(rs rules.Rules) []RuleConfig {
	all := rs.All()
	out := make([]RuleConfig, len(all))
	for i, r := range all {
		out[i] = RuleConfig{From: r.From.String(), To: r.To.String()}
	}
	return out
}

func MarshalRules(rs rules.Rules) ([]byte, error) {
	return yaml.Marshal(RulesFile{Rules: FromRules(rs)})
}
