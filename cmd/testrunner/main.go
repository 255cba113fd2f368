package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/paniker63/the-tale/internal/simclient"
	"github.com/paniker63/the-tale/internal/world"
)

func main() {
	url := flag.String("url", "ws://localhost:4000/ws", "Quest server WebSocket URL")
	filter := flag.String("run", "", "Only run scenarios whose names contain this text")
	list := flag.Bool("list", false, "List scenario names and exit")
	prefMob := flag.Int("pref-mob", 1, "Preferred mob id valid in the server's world")
	place := flag.Int("place", 1, "Home place id valid in the server's world")
	friend := flag.Int("friend", 4, "Friend person id valid in the server's world")
	verbose := flag.Bool("v", false, "Verbose output - show detailed actions for each scenario")
	flag.Parse()

	if *list {
		for _, name := range simclient.Names() {
			fmt.Println(name)
		}
		return
	}

	simclient.Verbose = *verbose

	fmt.Printf("Running quest scenarios against %s\n", *url)
	fmt.Println("Make sure the quest server is running!")
	fmt.Println()

	target := simclient.Target{
		URL:   *url,
		Facts: world.HeroFacts{PrefMobID: *prefMob, PlaceID: *place, FriendID: *friend},
	}
	results := simclient.RunFiltered(target, *filter)
	simclient.PrintResults(os.Stdout, results)

	// Exit with error code if any scenario failed
	for _, result := range results {
		if !result.Passed {
			os.Exit(1)
		}
	}
}
