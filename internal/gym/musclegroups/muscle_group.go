package musclegroups

type MuscleGroup struct {
	ID     int64  `json:"id"`
	UserID int64  `json:"user_id"`
	Name   string `json:"name"`
}

type AddMuscleGroupRequest struct {
	Name string `json:"name"`
}
