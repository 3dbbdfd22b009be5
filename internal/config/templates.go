package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Template renders Default as a TOML file.
func Template() (string, error) {
	def := Default()
	file := fileConfig{
		TargetNetwork:  def.Target.Network,
		TargetPath:     def.Target.Path,
		BundleID:       def.Target.BundleID,
		Priority:       def.Priority.String(),
		Timeout:        "0s",
		DefaultTimeout: def.Session.DefaultTimeout.String(),
		ConnectTimeout: def.Session.ConnectTimeout.String(),
		WriteTimeout:   def.Session.WriteTimeout.String(),
		SimAdminAddr:   def.Sim.AdminAddr,
		SimCorsOrigins: []string{"http://localhost:3000"},
		SimTablets:     def.Sim.Tablets,
	}
	out, err := toml.Marshal(file)
	if err != nil {
		return "", fmt.Errorf("config template: %w", err)
	}
	return string(out), nil
}

func WriteTemplate(path string, overwrite bool) error {
	template, err := Template()
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}
