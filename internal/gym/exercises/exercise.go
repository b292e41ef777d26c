package exercises

type Exercise struct {
	ID            int64   `json:"id"`
	MuscleGroupID int64   `json:"muscle_group_id"`
	Name          string  `json:"name"`
	Weight        float64 `json:"weight"`
	Sets          int     `json:"sets"`
	Reps          int     `json:"reps"`
	// ImagePath is the public /uploads/ path of the exercise image, nil when there is none.
	ImagePath *string `json:"image_path"`
}
