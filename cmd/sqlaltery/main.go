// Command sqlaltery generates reversible PostgreSQL migrations from a head
// schema and moves databases along the resulting chain.
package main

import "github.com/aqasim81/sqlaltery/internal/cli"

func main() {
	cli.Execute()
}
