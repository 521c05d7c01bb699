package main

import "github.com/yomogiu/yfinance-analytics/services/pipeline/cli"

func main() {
	cli.Execute()
}
