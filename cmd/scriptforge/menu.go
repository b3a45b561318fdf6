package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/mbellec/scriptforge"
)

// Menu opens the interactive loop on stdin/stdout. Colors are disabled
// when stdout is not a terminal.
func (c *command) Menu() error {
	a, err := c.agent()
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
	return runMenu(a, os.Stdin, os.Stdout)
}

const menuText = `
=== Scripts d'automatisation ===
1. Créer et lancer un script
2. Lister les scripts
3. Relancer un script existant
4. Arrêter un script
5. Quitter
`

// runMenu drives the numbered menu until the user quits or input ends.
func runMenu(a *scriptforge.Agent, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	title := color.New(color.FgCyan, color.Bold)
	good := color.New(color.FgGreen)
	bad := color.New(color.FgRed)
	for {
		_, _ = title.Fprint(out, menuText)
		_, _ = fmt.Fprint(out, "Choix : ")
		choice, ok := readLine(sc)
		if !ok {
			return nil
		}
		switch strings.TrimSpace(choice) {
		case "1":
			_, _ = fmt.Fprint(out, "Commande : ")
			text, ok := readLine(sc)
			if !ok {
				return nil
			}
			_, _ = fmt.Fprint(out, "Description (optionnelle) : ")
			desc, _ := readLine(sc)
			report(out, good, bad, a.Process(strings.TrimSpace(text), strings.TrimSpace(desc)))
		case "2":
			entries := a.List()
			if len(entries) == 0 {
				_, _ = fmt.Fprintln(out, "Aucun script enregistré.")
				continue
			}
			running := a.Running()
			for _, e := range entries {
				line := fmt.Sprintf("- %s [%s] %s", e.Name, e.Kind, e.Description)
				if pid, live := running[e.Name]; live {
					line += fmt.Sprintf(" (en cours, PID %d)", pid)
				}
				_, _ = fmt.Fprintln(out, line)
			}
		case "3":
			_, _ = fmt.Fprint(out, "Nom ou description : ")
			q, ok := readLine(sc)
			if !ok {
				return nil
			}
			entry, found := a.Find(strings.TrimSpace(q))
			if !found {
				_, _ = bad.Fprintf(out, "Aucun script ne correspond à %q\n", strings.TrimSpace(q))
				continue
			}
			report(out, good, bad, a.Execute(entry.Name))
		case "4":
			_, _ = fmt.Fprint(out, "Nom du script : ")
			name, ok := readLine(sc)
			if !ok {
				return nil
			}
			report(out, good, bad, a.Stop(strings.TrimSpace(name)))
		case "5", "q", "quitter":
			_, _ = fmt.Fprintln(out, "Au revoir !")
			return nil
		default:
			_, _ = bad.Fprintln(out, "Choix invalide, entrez un numéro entre 1 et 5.")
		}
	}
}

func readLine(sc *bufio.Scanner) (string, bool) {
	if !sc.Scan() {
		return "", false
	}
	return sc.Text(), true
}

func report(out io.Writer, good, bad *color.Color, res scriptforge.Result) {
	if res.OK {
		_, _ = good.Fprintln(out, res.Message)
	} else {
		_, _ = bad.Fprintln(out, res.Message)
	}
}
