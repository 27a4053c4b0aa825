package main

//go:generate swag init -g cmd/dashboard/main.go -o docs

// @title           Polymarket Portfolio Dashboard API
// @version         0.1.0
// @description     Wallet lookups, live view updates and PDF/XLSX exports over the Polymarket data API.
// @host            localhost:8080
// @BasePath        /
// @schemes         http
