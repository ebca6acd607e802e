package config

import "github.com/spf13/afero"

// fs is the filesystem the config is read from and written to. Tests replace
// it with afero.NewMemMapFs().
var fs = afero.NewOsFs()
