package router

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"time"

	"github.com/RussellAbraham/tinyapp/internal/auth"
	"github.com/RussellAbraham/tinyapp/internal/db/memorystorage"
	"github.com/RussellAbraham/tinyapp/internal/ipchecker"
	"github.com/RussellAbraham/tinyapp/internal/logger"
	"github.com/RussellAbraham/tinyapp/internal/models"
	"github.com/RussellAbraham/tinyapp/internal/service"
)

func newExampleServer() (*httptest.Server, *memorystorage.MemoryStorage) {
	if err := logger.Init("error"); err != nil {
		panic(err)
	}

	store, err := memorystorage.New()
	if err != nil {
		panic(err)
	}

	theService := service.New(store, nil, "http://localhost:8080")
	theAuth := auth.New(store, "tinyapp_session", []byte("example-signing-secret"), time.Hour)
	theIPChecker, err := ipchecker.New("")
	if err != nil {
		panic(err)
	}

	handler, err := New(theService, theAuth, theIPChecker)
	if err != nil {
		panic(err)
	}

	return httptest.NewServer(handler), store
}

func ExampleRouter_GetPing() {
	server, _ := newExampleServer()
	defer server.Close()

	resp, err := http.Get(server.URL + "/ping")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Status Code:", resp.StatusCode)

	// Output:
	// Status Code: 200
}

func ExampleRouter_GetRedirecttolongurl() {
	server, store := newExampleServer()
	defer server.Close()

	err := store.InsertURL(
		context.Background(),
		models.URLRecord{ShortCode: "b2xVn2", LongURL: "http://www.lighthouselabs.ca", OwnerID: "u1"},
		nil,
	)
	if err != nil {
		panic(err)
	}

	client := &http.Client{
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// Returning http.ErrUseLastResponse tells the client to not follow redirects
			return http.ErrUseLastResponse
		},
	}

	resp, err := client.Get(server.URL + "/u/b2xVn2")
	if err != nil {
		panic(err)
	}
	defer resp.Body.Close()

	fmt.Println("Redirect Status:", resp.StatusCode)
	fmt.Println("Location:", resp.Header.Get("Location"))

	// Output:
	// Redirect Status: 302
	// Location: http://www.lighthouselabs.ca
}
