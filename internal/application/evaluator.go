package app

import (
	"math"

	"body-scan/internal/domain/entity"
)

// Подсказки оператору.
const (
	msgNoBody         = "Тело не обнаружено"
	msgFrameHead      = "Поместите в кадр голову и плечи"
	msgLowerCamera    = "Опустите камеру немного ниже"
	msgRaiseCamera    = "Поднимите камеру"
	msgTurnFront      = "Повернитесь лицом к камере"
	msgTurnBack       = "Повернитесь спиной к камере"
	msgTurnSide       = "Повернитесь боком (в профиль)"
	msgHoldUpper      = "Отлично! Держите положение..."
	msgPointLegs      = "Наведите камеру на ноги"
	msgHoldLegsNoFeet = "Сканирую ноги... стопы не в кадре"
	msgHoldLegs       = "Сканирую ноги..."
	msgFrameFace      = "Поместите в кадр лицо"
	msgCenterFace     = "Расположите лицо по центру кадра"
	msgComeCloser     = "Подойдите ближе к камере"
	msgHoldFace       = "Отлично! Смотрите в камеру..."
	msgFinished       = "Сканирование завершено"
)

// RuleConfig пороги правил кадрирования.
type RuleConfig struct {
	VisibilityThreshold  float64 `toml:"visibility_threshold"`
	FrontMinShoulderSpan float64 `toml:"front_min_shoulder_span"`
	SideMaxShoulderSpan  float64 `toml:"side_max_shoulder_span"`
	HeadTopMargin        float64 `toml:"head_top_margin"`
	ShoulderBottomLimit  float64 `toml:"shoulder_bottom_limit"`
	FaceCenterTolerance  float64 `toml:"face_center_tolerance"`
	FaceMinY             float64 `toml:"face_min_y"`
	FaceMaxY             float64 `toml:"face_max_y"`
	FaceMinShoulderSpan  float64 `toml:"face_min_shoulder_span"`
}

// DefaultRuleConfig пороги, подобранные на практике.
func DefaultRuleConfig() RuleConfig {
	return RuleConfig{
		VisibilityThreshold:  0.6,
		FrontMinShoulderSpan: 0.15,
		SideMaxShoulderSpan:  0.25,
		HeadTopMargin:        0.05,
		ShoulderBottomLimit:  0.8,
		FaceCenterTolerance:  0.2,
		FaceMinY:             0.15,
		FaceMaxY:             0.7,
		FaceMinShoulderSpan:  0.3,
	}
}

// Evaluator сопоставляет набор суставов с правилами этапа. Не хранит состояния.
type Evaluator struct {
	cfg RuleConfig
}

// NewEvaluator создаёт оценщик с заданными порогами.
func NewEvaluator(cfg RuleConfig) *Evaluator {
	return &Evaluator{cfg: cfg}
}

// Evaluate возвращает ровно одну инструкцию для кадра.
// Приоритет: наличие тела, кадрирование, разворот/дистанция, успех.
func (e *Evaluator) Evaluate(landmarks entity.PoseFrame, phase entity.Phase) entity.Instruction {
	if phase.IsTerminal() {
		return neutral(msgFinished)
	}
	if !landmarks.Detected() {
		return entity.Instruction{Type: entity.InstructionError, Message: msgNoBody}
	}

	switch phase.Category() {
	case entity.CategoryFace:
		return e.evaluateFace(landmarks)
	case entity.CategoryUpper:
		return e.evaluateUpper(landmarks, phase.Orientation())
	case entity.CategoryLower:
		return e.evaluateLower(landmarks)
	default:
		return neutral("Подождите...")
	}
}

func (e *Evaluator) evaluateUpper(lm entity.PoseFrame, orientation entity.Orientation) entity.Instruction {
	tau := e.cfg.VisibilityThreshold
	if !lm.Visible(entity.JointNose, tau) ||
		!lm.Visible(entity.JointLeftShoulder, tau) ||
		!lm.Visible(entity.JointRightShoulder, tau) {
		return warning(msgFrameHead)
	}

	nose, _ := lm.At(entity.JointNose)
	left, _ := lm.At(entity.JointLeftShoulder)
	if nose.Y < e.cfg.HeadTopMargin {
		return warning(msgLowerCamera)
	}
	if left.Y > e.cfg.ShoulderBottomLimit {
		return warning(msgRaiseCamera)
	}

	span := lm.HorizontalSpan(entity.JointLeftShoulder, entity.JointRightShoulder)
	switch orientation {
	case entity.OrientationFront:
		if span < e.cfg.FrontMinShoulderSpan {
			return warning(msgTurnFront)
		}
	case entity.OrientationBack:
		if span < e.cfg.FrontMinShoulderSpan {
			return warning(msgTurnBack)
		}
	case entity.OrientationSide:
		if span > e.cfg.SideMaxShoulderSpan {
			return warning(msgTurnSide)
		}
	}

	return success(msgHoldUpper)
}

func (e *Evaluator) evaluateLower(lm entity.PoseFrame) entity.Instruction {
	tau := e.cfg.VisibilityThreshold
	if !lm.Visible(entity.JointLeftKnee, tau) && !lm.Visible(entity.JointRightKnee, tau) {
		return warning(msgPointLegs)
	}
	// Стопы усиливают уверенность, но не обязательны.
	if !lm.Visible(entity.JointLeftAnkle, tau) && !lm.Visible(entity.JointRightAnkle, tau) {
		return success(msgHoldLegsNoFeet)
	}
	return success(msgHoldLegs)
}

func (e *Evaluator) evaluateFace(lm entity.PoseFrame) entity.Instruction {
	tau := e.cfg.VisibilityThreshold
	if !lm.Visible(entity.JointNose, tau) ||
		!lm.Visible(entity.JointLeftEye, tau) ||
		!lm.Visible(entity.JointRightEye, tau) {
		return warning(msgFrameFace)
	}

	nose, _ := lm.At(entity.JointNose)
	if math.Abs(nose.X-0.5) > e.cfg.FaceCenterTolerance ||
		nose.Y < e.cfg.FaceMinY || nose.Y > e.cfg.FaceMaxY {
		return warning(msgCenterFace)
	}

	if lm.Visible(entity.JointLeftShoulder, tau) && lm.Visible(entity.JointRightShoulder, tau) {
		span := lm.HorizontalSpan(entity.JointLeftShoulder, entity.JointRightShoulder)
		if span < e.cfg.FaceMinShoulderSpan {
			return warning(msgComeCloser)
		}
	}

	return success(msgHoldFace)
}

func success(msg string) entity.Instruction {
	return entity.Instruction{Type: entity.InstructionSuccess, Message: msg}
}

func warning(msg string) entity.Instruction {
	return entity.Instruction{Type: entity.InstructionWarning, Message: msg}
}

func neutral(msg string) entity.Instruction {
	return entity.Instruction{Type: entity.InstructionNeutral, Message: msg}
}
