package cli

import (
	"fmt"
	"strings"
)

// secretKey reports whether a config key holds a credential that should be
// masked when printed.
func secretKey(key string) bool {
	return strings.HasSuffix(key, "api_key")
}

// ConfigGet prints one config value. Secrets are masked.
func ConfigGet(app *App, key string) error {
	value, ok := app.Store.Get(key)
	if !ok {
		return fmt.Errorf("config key %q is not set", key)
	}
	if secretKey(key) {
		value = mask(value)
	}
	fmt.Println(value)
	return nil
}

// ConfigSet stores one config value.
func ConfigSet(app *App, key, value string) error {
	if err := app.Store.Set(key, value); err != nil {
		return err
	}
	fmt.Printf("set %s\n", key)
	return nil
}

// ConfigUnset removes one config value.
func ConfigUnset(app *App, key string) error {
	if err := app.Store.Unset(key); err != nil {
		return err
	}
	fmt.Printf("unset %s\n", key)
	return nil
}

// ConfigList prints every stored key, secrets masked.
func ConfigList(app *App) error {
	for _, key := range app.Store.Keys() {
		value, _ := app.Store.Get(key)
		if secretKey(key) {
			value = mask(value)
		}
		fmt.Printf("%s = %s\n", key, value)
	}
	return nil
}

func mask(value string) string {
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
