package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mbellec/scriptforge"
	"github.com/mbellec/scriptforge/pkg/client"
)

// defaultAPIURL is where 'scriptforge serve' listens out of the box.
const defaultAPIURL = "http://127.0.0.1:8080/api"

// command carries the global flags; handlers build a local agent or an
// API client per invocation. Catalog operations work locally because
// the catalog lives on disk, but the running set lives inside the
// daemon, so stop and usage queries go through the API.
type command struct {
	global *GlobalFlags
}

func (c *command) loadConfig() (scriptforge.Config, error) {
	if c.global.ConfigPath == "" {
		return scriptforge.DefaultConfig(), nil
	}
	cfg, err := scriptforge.LoadConfig(c.global.ConfigPath)
	if err != nil {
		return scriptforge.Config{}, fmt.Errorf("error loading config: %w", err)
	}
	return cfg, nil
}

func (c *command) agent() (*scriptforge.Agent, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	return scriptforge.New(cfg)
}

// apiClient connects to a running daemon, failing fast when it is not
// reachable.
func (c *command) apiClient(apiURL string, timeout time.Duration) (*client.Client, error) {
	if apiURL == "" {
		apiURL = defaultAPIURL
	}
	cl := client.New(client.Config{BaseURL: apiURL, Timeout: timeout})
	if !cl.IsReachable(context.Background()) {
		return nil, fmt.Errorf("daemon not reachable at %s - start it first with 'scriptforge serve'", apiURL)
	}
	return cl, nil
}

// Create generates a script from free text without launching it.
func (c *command) Create(f CreateFlags) error {
	if f.Command == "" {
		return errors.New("command text is required")
	}
	if f.APIUrl != "" {
		cl, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		res, err := cl.Generate(context.Background(), f.Command, f.Description)
		if err != nil {
			return err
		}
		printJSON(res)
		return nil
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	printJSON(a.Generate(f.Command, f.Description))
	return nil
}

// Run processes free text (re-execute a matching script or generate and
// launch a new one) or executes a cataloged script by name.
func (c *command) Run(f RunFlags) error {
	if f.Name == "" && f.Command == "" {
		return errors.New("either --name or command text is required")
	}
	if f.APIUrl != "" {
		cl, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		var res client.Result
		if f.Name != "" {
			res, err = cl.Execute(context.Background(), f.Name)
		} else {
			res, err = cl.Process(context.Background(), f.Command, f.Description)
		}
		if err != nil {
			return err
		}
		printJSON(res)
		return nil
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	var res scriptforge.Result
	if f.Name != "" {
		res = a.Execute(f.Name)
	} else {
		res = a.Process(f.Command, f.Description)
	}
	printJSON(res)
	return nil
}

// Stop force-stops a tracked script. The running set lives inside the
// daemon, so this always goes through the API.
func (c *command) Stop(f StopFlags) error {
	if f.Name == "" {
		return errors.New("script name is required")
	}
	cl, err := c.apiClient(f.APIUrl, f.APITimeout)
	if err != nil {
		return err
	}
	res, err := cl.Stop(context.Background(), f.Name)
	if err != nil {
		return err
	}
	printJSON(res)
	return nil
}

// List prints the catalog entries whose script file still exists.
func (c *command) List(f ListFlags) error {
	if f.APIUrl != "" {
		cl, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		scripts, err := cl.List(context.Background())
		if err != nil {
			return err
		}
		out := map[string]any{"scripts": scripts}
		if f.Usage {
			ri, err := cl.Running(context.Background(), true)
			if err != nil {
				return err
			}
			out["running"] = ri.Running
			out["usage"] = ri.Usage
		}
		printJSON(out)
		return nil
	}
	if f.Usage {
		return errors.New("--usage reads the daemon's running set; use --api-url")
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	printJSON(map[string]any{"scripts": toRows(a.List())})
	return nil
}

// Find prints the first catalog entry matching the query.
func (c *command) Find(f FindFlags) error {
	if f.Query == "" {
		return errors.New("query text is required")
	}
	if f.APIUrl != "" {
		cl, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		info, err := cl.Find(context.Background(), f.Query)
		if err != nil {
			return err
		}
		printJSON(info)
		return nil
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	entry, found := a.Find(f.Query)
	if !found {
		return fmt.Errorf("aucun script ne correspond à %q", f.Query)
	}
	printJSON(toRow(entry))
	return nil
}

// Prune removes catalog entries whose script file is gone.
func (c *command) Prune(f PruneFlags) error {
	if f.APIUrl != "" {
		cl, err := c.apiClient(f.APIUrl, f.APITimeout)
		if err != nil {
			return err
		}
		removed, err := cl.Prune(context.Background())
		if err != nil {
			return err
		}
		if removed == nil {
			removed = []string{}
		}
		printJSON(map[string][]string{"removed": removed})
		return nil
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	removed, err := a.Prune()
	if err != nil {
		return err
	}
	if removed == nil {
		removed = []string{}
	}
	printJSON(map[string][]string{"removed": removed})
	return nil
}

// TemplateSave stores a user template under a name, overriding the
// built-in body for that kind on future generations.
func (c *command) TemplateSave(f TemplateSaveFlags) error {
	if f.Name == "" || f.File == "" {
		return errors.New("--name and --file are required")
	}
	content, err := os.ReadFile(f.File)
	if err != nil {
		return fmt.Errorf("read template file: %w", err)
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if err := a.SaveTemplate(f.Name, string(content)); err != nil {
		return err
	}
	fmt.Printf("Modèle %q enregistré\n", f.Name)
	return nil
}

// TemplateShow prints the effective template body for a kind.
func (c *command) TemplateShow(f TemplateShowFlags) error {
	if f.Kind == "" {
		return errors.New("--kind is required")
	}
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	fmt.Print(a.Template(scriptforge.Kind(f.Kind)))
	return nil
}
