package services

// Relation is the directed state between a viewer and a target.
type Relation int

const (
	RelationNone Relation = iota
	RelationRequested
	RelationFollowing
)

func (r Relation) String() string {
	switch r {
	case RelationRequested:
		return "requested"
	case RelationFollowing:
		return "following"
	default:
		return "none"
	}
}

// FollowStatus is the client view of a Relation. Following and Requested
// are never both true.
type FollowStatus struct {
	Following bool `json:"following"`
	Requested bool `json:"requested"`
}

func (r Relation) Status() FollowStatus {
	return FollowStatus{
		Following: r == RelationFollowing,
		Requested: r == RelationRequested,
	}
}

type FollowAction string

const (
	ActionFollow   FollowAction = "follow"
	ActionUnfollow FollowAction = "unfollow"
	ActionAccept   FollowAction = "accept"
	ActionDecline  FollowAction = "decline"
)

// NextRelation is the single transition function for the follow workflow.
// Unfollow covers both removing an edge and cancelling a pending request.
func NextRelation(cur Relation, action FollowAction) (Relation, error) {
	switch action {
	case ActionFollow:
		switch cur {
		case RelationFollowing:
			return cur, ErrAlreadyFollowing
		case RelationRequested:
			return cur, ErrAlreadyRequested
		}
		return RelationRequested, nil

	case ActionUnfollow:
		if cur == RelationNone {
			return cur, ErrNotFollowing
		}
		return RelationNone, nil

	case ActionAccept:
		if cur != RelationRequested {
			return cur, ErrRequestNotFound
		}
		return RelationFollowing, nil

	case ActionDecline:
		if cur != RelationRequested {
			return cur, ErrRequestNotFound
		}
		return RelationNone, nil
	}
	return cur, newError(KindValidation, "invalid_action", "unknown follow action")
}
