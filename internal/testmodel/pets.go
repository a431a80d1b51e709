package testmodel

// Keeper is anything that can keep pets
type Keeper interface {
	KeeperName() string
}

// Pet is the abstract entity type of the pet hierarchy
type Pet interface {
	PetName() string
	Keeper() Keeper
}

// Person keeps a single pet
type Person struct {
	ID   int    `search:"id"`
	Name string `search:"field"`
	Pet  Pet    `search:"embedded,inverse=Keeper"`
}

// KeeperName implements Keeper
func (p *Person) KeeperName() string { return p.Name }

// Shelter keeps many pets
type Shelter struct {
	ID   int    `search:"id"`
	Name string `search:"field"`
	Pets []Pet  `search:"embedded,inverse=Keeper"`
}

// KeeperName implements Keeper
func (s *Shelter) KeeperName() string { return s.Name }

// Dog is a concrete pet
type Dog struct {
	ID    int    `search:"id"`
	Name  string `search:"field"`
	Breed string `search:"field"`
	Owner Keeper
}

// PetName implements Pet
func (d *Dog) PetName() string { return d.Name }

// Keeper implements Pet
func (d *Dog) Keeper() Keeper { return d.Owner }

// Cat is a concrete pet
type Cat struct {
	ID    int    `search:"id"`
	Name  string `search:"field"`
	Lives int    `search:"field"`
	Owner Keeper
}

// PetName implements Pet
func (c *Cat) PetName() string { return c.Name }

// Keeper implements Pet
func (c *Cat) Keeper() Keeper { return c.Owner }
