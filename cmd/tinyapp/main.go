package main

import (
	"errors"
	"net/http"

	"github.com/RussellAbraham/tinyapp/internal/app"
)

func main() {
	application, err := app.New()
	if err != nil {
		panic(err)
	}
	defer application.Close()

	if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		panic(err)
	}
}
