package world

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testWorldYAML = `places:
  - id: 1
    name: Ashford
    terrain: plains
  - id: 2
    name: Brackenwood
    terrain: forest
  - id: 3
    name: Dunmere
    terrain: forest
  - id: 4
    name: Stonegate
    terrain: mountains
  - id: 5
    name: Millbrook
    terrain: plains
mobs:
  - id: 7
    name: wolf
    terrains: [forest, plains]
  - id: 8
    name: goblin
    terrains: [mountains]
  - id: 9
    name: bandit
    terrains: [plains]
persons:
  - id: 11
    name: Alda
    place: 1
    profession: merchant
  - id: 12
    name: Bram
    place: 2
  - id: 13
    name: Cora
    place: 3
  - id: 14
    name: Dorn
    place: 4
  - id: 15
    name: Ena
    place: 5
  - id: 16
    name: Finn
    place: 1
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", name, err)
	}
	return path
}

// testRegistry loads the shared test world
func testRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := LoadFromYAML(writeFile(t, t.TempDir(), "world.yaml", testWorldYAML))
	if err != nil {
		t.Fatalf("LoadFromYAML failed: %v", err)
	}
	return r
}

func TestLoadFromYAML(t *testing.T) {
	r := testRegistry(t)

	places, mobs, persons := r.Counts()
	if places != 5 || mobs != 3 || persons != 6 {
		t.Errorf("Counts() = %d, %d, %d, want 5, 3, 6", places, mobs, persons)
	}

	wolf, ok := r.GetMob(7)
	if !ok {
		t.Fatal("Expected mob 7")
	}
	if !wolf.LivesIn("forest") || wolf.LivesIn("mountains") {
		t.Errorf("Unexpected wolf terrains: %v", wolf.Terrains)
	}

	alda, ok := r.GetPerson(11)
	if !ok {
		t.Fatal("Expected person 11")
	}
	if alda.PlaceID != 1 || alda.Profession != "merchant" {
		t.Errorf("Unexpected person: %+v", alda)
	}

	ids := []int{}
	for _, p := range r.Places() {
		ids = append(ids, p.ID)
	}
	for i := 1; i < len(ids); i++ {
		if ids[i-1] >= ids[i] {
			t.Fatalf("Places() not ordered by id: %v", ids)
		}
	}
}

func TestLoadFromYAML_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "duplicate place",
			content: "places:\n  - {id: 1, name: A, terrain: plains}\n  - {id: 1, name: B, terrain: forest}\n",
			wantErr: "already registered",
		},
		{
			name:    "place without terrain",
			content: "places:\n  - {id: 1, name: A}\n",
			wantErr: "no terrain",
		},
		{
			name:    "mob without terrains",
			content: "mobs:\n  - {id: 3, name: rat}\n",
			wantErr: "no terrains",
		},
		{
			name:    "person in unknown place",
			content: "places:\n  - {id: 1, name: A, terrain: plains}\npersons:\n  - {id: 2, name: P, place: 9}\n",
			wantErr: "unknown place",
		},
		{
			name:    "non-positive id",
			content: "places:\n  - {id: 0, name: A, terrain: plains}\n",
			wantErr: "must be positive",
		},
		{
			name:    "malformed yaml",
			content: "places: [",
			wantErr: "failed to parse",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "world.yaml", tt.content)
			_, err := LoadFromYAML(path)
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Error %q does not mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFromYAML_MissingFile(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestLoadFromDirectory(t *testing.T) {
	dir := t.TempDir()
	// Persons may live in places defined by another file
	writeFile(t, dir, "b_persons.yaml", "persons:\n  - {id: 10, name: Hal, place: 1}\n")
	writeFile(t, dir, "a_places.yml", "places:\n  - {id: 1, name: Ashford, terrain: plains}\n")
	writeFile(t, dir, "notes.txt", "not yaml")
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0755); err != nil {
		t.Fatal(err)
	}

	r, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	places, _, persons := r.Counts()
	if places != 1 || persons != 1 {
		t.Errorf("Counts() = %d places, %d persons, want 1 and 1", places, persons)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "world.yaml", testWorldYAML)
	r, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if _, ok := r.GetPlace(4); !ok {
		t.Error("Expected place 4")
	}
}

func TestKnowledge(t *testing.T) {
	r := testRegistry(t)

	kb, err := r.Knowledge(HeroFacts{PrefMobID: 7, Terrain: "forest", PlaceID: 5, FriendID: 13})
	if err != nil {
		t.Fatalf("Knowledge failed: %v", err)
	}
	if kb.Len() != 3 {
		t.Errorf("Len() = %d, want 3", kb.Len())
	}

	mob, ok := kb.GetSpecial("hero_pref_mob")
	if !ok || mob.ID != 7 || mob.Terrain != "forest" {
		t.Errorf("Unexpected preferred mob: %+v", mob)
	}
	friend, ok := kb.GetSpecial("hero_friend")
	if !ok || friend.PlaceID != 3 {
		t.Errorf("Unexpected friend: %+v", friend)
	}
	if _, ok := kb.GetSpecial("hero_enemy"); ok {
		t.Error("Unknown fact should be absent")
	}
}

func TestKnowledge_Errors(t *testing.T) {
	r := testRegistry(t)

	tests := []struct {
		name  string
		facts HeroFacts
	}{
		{"unknown mob", HeroFacts{PrefMobID: 99}},
		{"wrong terrain", HeroFacts{PrefMobID: 8, Terrain: "forest"}},
		{"unknown place", HeroFacts{PlaceID: 99}},
		{"unknown friend", HeroFacts{FriendID: 99}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.Knowledge(tt.facts); err == nil {
				t.Error("Expected error")
			}
		})
	}
}

func TestKnowledge_DefaultTerrain(t *testing.T) {
	r := testRegistry(t)

	kb, err := r.Knowledge(HeroFacts{PrefMobID: 8})
	if err != nil {
		t.Fatalf("Knowledge failed: %v", err)
	}
	mob, _ := kb.GetSpecial("hero_pref_mob")
	if mob.Terrain != "mountains" {
		t.Errorf("Terrain = %q, want the mob's first terrain", mob.Terrain)
	}
}
