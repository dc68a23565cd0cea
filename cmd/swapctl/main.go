package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"
)

var (
	swapctlDataDir = btcutil.AppDataDir("swapctl", false)
	statePath      = filepath.Join(swapctlDataDir, "state.json")
)

func main() {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "swapctl"
	app.Usage = "Command line interface for swapd traders and operators"
	app.Commands = append(
		app.Commands,
		&config,
		&token,
		&createtrade,
		&listtrades,
		&gettrade,
		&tradehistory,
		&countertrade,
		&accepttrade,
		&declinecounter,
		&deployescrow,
		&recorddeposit,
		&finalizetrade,
		&canceltrade,
		&postmessage,
		&conversation,
		&webhooks,
	)

	err := app.Run(os.Args)
	if err != nil {
		fatal(err)
	}
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid config state: %s", err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if _, err := os.Stat(swapctlDataDir); os.IsNotExist(err) {
		if err := os.MkdirAll(swapctlDataDir, os.ModeDir|0755); err != nil {
			return err
		}
	}

	currentData, err := getState()
	if err != nil {
		currentData = map[string]string{}
	}

	mergedData := merge(currentData, data)

	jsonString, err := json.Marshal(mergedData)
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp []byte) {
	if len(resp) <= 0 {
		return
	}
	var out bytes.Buffer
	if err := json.Indent(&out, resp, "", "\t"); err != nil {
		fmt.Println("unable to decode response: ", err)
		return
	}
	fmt.Println(out.String())
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[swapctl] %v\n", err)
	}
	os.Exit(1)
}
