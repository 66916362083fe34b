package models

import "time"

type GrenadeType string

const (
	GrenadeSmoke   GrenadeType = "smoke"
	GrenadeFlash   GrenadeType = "flash"
	GrenadeHE      GrenadeType = "he"
	GrenadeMolotov GrenadeType = "molotov"
	GrenadeDecoy   GrenadeType = "decoy"
)

var GrenadeTypes = []GrenadeType{GrenadeSmoke, GrenadeFlash, GrenadeHE, GrenadeMolotov, GrenadeDecoy}

func (g GrenadeType) Valid() bool {
	for _, v := range GrenadeTypes {
		if g == v {
			return true
		}
	}
	return false
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

func (d Difficulty) Valid() bool {
	return d == DifficultyEasy || d == DifficultyMedium || d == DifficultyHard
}

type Team string

const (
	TeamCT   Team = "ct"
	TeamT    Team = "t"
	TeamBoth Team = "both"
)

func (t Team) Valid() bool {
	return t == TeamCT || t == TeamT || t == TeamBoth
}

type ThrowType string

const (
	ThrowStanding       ThrowType = "standing"
	ThrowJump           ThrowType = "jump_throw"
	ThrowRunningLeft    ThrowType = "running_left"
	ThrowRunningRight   ThrowType = "running_right"
	ThrowRunningForward ThrowType = "running_forward"
	ThrowCrouching      ThrowType = "crouching"
	ThrowWalk           ThrowType = "walk_throw"
)

var ThrowTypes = []ThrowType{
	ThrowStanding, ThrowJump, ThrowRunningLeft, ThrowRunningRight,
	ThrowRunningForward, ThrowCrouching, ThrowWalk,
}

func (t ThrowType) Valid() bool {
	for _, v := range ThrowTypes {
		if t == v {
			return true
		}
	}
	return false
}

type MediaType string

const (
	MediaVideo       MediaType = "video"
	MediaScreenshots MediaType = "screenshots"
)

func (m MediaType) Valid() bool {
	return m == MediaVideo || m == MediaScreenshots
}

// Point is a position in percent of the rendered map image, both axes in [0,100].
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type GrenadeThrow struct {
	ID             string      `db:"id" json:"id"`
	MapID          string      `db:"map_id" json:"map_id"`
	UserID         *string     `db:"user_id" json:"user_id,omitempty"`
	Name           string      `db:"name" json:"name"`
	Description    *string     `db:"description" json:"description,omitempty"`
	GrenadeType    GrenadeType `db:"grenade_type" json:"grenade_type"`
	Difficulty     Difficulty  `db:"difficulty" json:"difficulty"`
	Team           Team        `db:"team" json:"team"`
	ThrowTypes     []ThrowType `db:"throw_types" json:"throw_types"`
	ThrowPointX    float64     `db:"throw_point_x" json:"throw_point_x"`
	ThrowPointY    float64     `db:"throw_point_y" json:"throw_point_y"`
	LandingPointX  float64     `db:"landing_point_x" json:"landing_point_x"`
	LandingPointY  float64     `db:"landing_point_y" json:"landing_point_y"`
	MediaType      MediaType   `db:"media_type" json:"media_type"`
	VideoURL       *string     `db:"video_url" json:"video_url,omitempty"`
	ThumbnailURL   *string     `db:"thumbnail_url" json:"thumbnail_url,omitempty"`
	SetupImageURL  *string     `db:"setup_image_url" json:"setup_image_url,omitempty"`
	AimImageURL    *string     `db:"aim_image_url" json:"aim_image_url,omitempty"`
	ResultImageURL *string     `db:"result_image_url" json:"result_image_url,omitempty"`
	IsPublic       bool        `db:"is_public" json:"is_public"`
	IsVerified     bool        `db:"is_verified" json:"is_verified"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

func (t GrenadeThrow) ThrowPoint() Point   { return Point{X: t.ThrowPointX, Y: t.ThrowPointY} }
func (t GrenadeThrow) LandingPoint() Point { return Point{X: t.LandingPointX, Y: t.LandingPointY} }

// OwnedBy reports whether the throw was submitted by userID.
func (t GrenadeThrow) OwnedBy(userID string) bool {
	return t.UserID != nil && *t.UserID == userID
}
