//go:build js && wasm

package main

import (
	"fmt"
	"strings"
	"syscall/js"

	"github.com/jun/formdesk/internal/export"
	"github.com/jun/formdesk/internal/portal"
	"github.com/jun/formdesk/internal/render"
)

func main() {
	catalog := portal.NewCatalog()
	realizer := render.NewRealizer()

	// format: listTemplates(query string) -> array of objects
	listTemplatesFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		query := ""
		if len(args) >= 1 {
			query = args[0].String()
		}

		templates := catalog.Filter(query)
		arr := js.Global().Get("Array").New(len(templates))
		for i, tpl := range templates {
			obj := js.Global().Get("Object").New()
			obj.Set("id", tpl.ID)
			obj.Set("title", tpl.Title)
			obj.Set("description", tpl.Description)
			obj.Set("initialContent", tpl.InitialContent)
			arr.SetIndex(i, obj)
		}
		return arr
	})

	// format: realizeDocument(sourceString) -> htmlString
	realizeFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return "Error: Invalid number of arguments"
		}
		source := args[0].String()

		htmlBytes, err := realizer.Realize([]byte(source))
		if err != nil {
			return "Error: " + err.Error()
		}

		return string(htmlBytes)
	})

	// format: flattenDocument(contentString) -> plainTextString
	flattenFunc := js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) != 1 {
			return ""
		}
		return strings.Join(export.Flatten(args[0].String()), "\n")
	})

	js.Global().Set("listTemplates", listTemplatesFunc)
	js.Global().Set("realizeDocument", realizeFunc)
	js.Global().Set("flattenDocument", flattenFunc)

	fmt.Println("FormDesk Portal Wasm Initialized")

	// Prevent the function from returning, which would exit the Wasm module
	select {}
}
