package main

import "github.com/yomogiu/yfinance-analytics/services/api/cli"

func main() {
	cli.Execute()
}
