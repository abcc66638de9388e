package commands

import (
	"fmt"
	"path/filepath"

	"git.home.luguber.info/inful/sitepub/internal/config"
)

// InitCmd implements the 'init' command.
type InitCmd struct {
	Force  bool   `help:"Overwrite existing configuration file"`
	Output string `short:"o" name:"output" help:"Directory to write sitepub.yaml into"`
}

func (i *InitCmd) Run(_ *Global, root *CLI) error {
	if i.Output != "" {
		return RunInit(filepath.Join(i.Output, config.DefaultFile), i.Force)
	}
	if root.BaseDir != "" && root.Config == config.DefaultFile {
		return RunInit(filepath.Join(root.BaseDir, config.DefaultFile), i.Force)
	}
	return RunInit(root.Config, i.Force)
}

func RunInit(configPath string, force bool) error {
	fmt.Printf("Writing configuration to %s\n", configPath)
	if err := config.Init(configPath, force); err != nil {
		return err
	}
	fmt.Println("Edit the catalog to list your site's sources, then run sitepub.")
	return nil
}
