// Command ncctl bootstraps a Nextcloud stack on a single Docker host.
package main

func main() {
	Execute()
}
