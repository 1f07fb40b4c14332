package config

import "github.com/spf13/afero"

// fs is swapped for afero.NewMemMapFs() in tests so that config files never
// touch the real home directory.
var fs = afero.NewOsFs()
