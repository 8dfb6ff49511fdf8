package vm

import "errors"

// execCommand executes one finalize command. Plain instructions delegate
// to the instruction path; the finalize-only commands branch, await and
// touch the mapping store.
func (c *Cursor) execCommand(f *Frame, cmd Command, tx *Transaction) error {
	switch x := cmd.(type) {
	case InstructionCommand:
		return c.execInstruction(f, &x.Instruction, tx)

	case BranchCommand:
		return c.execBranch(f, x, tx)

	case PositionCommand:
		// Labels perform no state change.
		c.record(len(c.stack)-1, "position "+x.Label)
		f.ip++
		return nil

	case AwaitCommand:
		return c.execAwait(f, x, tx)

	case GetCommand:
		c.record(len(c.stack)-1, "get "+x.Mapping)
		key, err := c.resolveOperand(f, x.Key, tx)
		if err != nil {
			return err
		}
		if err := c.checkMapping(f, x.Mapping); err != nil {
			return err
		}
		v, err := c.store.Get(f.ctx.program.ID, x.Mapping, key)
		if errors.Is(err, ErrKeyNotFound) {
			return Haltf("mapping %s has no entry for key %s", x.Mapping, key)
		}
		if err != nil {
			return err
		}
		if err := f.Store(x.Destination, v); err != nil {
			return err
		}
		f.ip++
		return nil

	case GetOrUseCommand:
		c.record(len(c.stack)-1, "get.or_use "+x.Mapping)
		key, err := c.resolveOperand(f, x.Key, tx)
		if err != nil {
			return err
		}
		if err := c.checkMapping(f, x.Mapping); err != nil {
			return err
		}
		v, err := c.store.Get(f.ctx.program.ID, x.Mapping, key)
		if errors.Is(err, ErrKeyNotFound) {
			v, err = c.resolveOperand(f, x.Default, tx)
		}
		if err != nil {
			return err
		}
		if err := f.Store(x.Destination, v); err != nil {
			return err
		}
		f.ip++
		return nil

	case SetCommand:
		c.record(len(c.stack)-1, "set "+x.Mapping)
		key, err := c.resolveOperand(f, x.Key, tx)
		if err != nil {
			return err
		}
		value, err := c.resolveOperand(f, x.Value, tx)
		if err != nil {
			return err
		}
		if err := c.checkMapping(f, x.Mapping); err != nil {
			return err
		}
		if err := c.store.Set(f.ctx.program.ID, x.Mapping, key, value); err != nil {
			return err
		}
		f.ip++
		return nil

	case RemoveCommand:
		c.record(len(c.stack)-1, "remove "+x.Mapping)
		key, err := c.resolveOperand(f, x.Key, tx)
		if err != nil {
			return err
		}
		if err := c.checkMapping(f, x.Mapping); err != nil {
			return err
		}
		if err := c.store.Remove(f.ctx.program.ID, x.Mapping, key); err != nil {
			return err
		}
		f.ip++
		return nil

	case ContainsCommand:
		c.record(len(c.stack)-1, "contains "+x.Mapping)
		key, err := c.resolveOperand(f, x.Key, tx)
		if err != nil {
			return err
		}
		if err := c.checkMapping(f, x.Mapping); err != nil {
			return err
		}
		ok, err := c.store.Contains(f.ctx.program.ID, x.Mapping, key)
		if err != nil {
			return err
		}
		if err := f.Store(x.Destination, Boolean(ok)); err != nil {
			return err
		}
		f.ip++
		return nil

	default:
		return Internalf("unknown finalize command %T", cmd)
	}
}

// checkMapping halts if the program does not declare the named mapping.
func (c *Cursor) checkMapping(f *Frame, name string) error {
	if _, ok := f.ctx.program.Mappings[name]; !ok {
		return Haltf("program %s defines no mapping %q", f.ctx.program.ID, name)
	}
	return nil
}

// execBranch compares its operands and either jumps to the position whose
// label matches the branch target or falls through.
func (c *Cursor) execBranch(f *Frame, cmd BranchCommand, tx *Transaction) error {
	c.record(len(c.stack)-1, "branch "+cmd.Target)
	a, err := c.resolveOperand(f, cmd.First, tx)
	if err != nil {
		return err
	}
	b, err := c.resolveOperand(f, cmd.Second, tx)
	if err != nil {
		return err
	}
	taken := a.Equal(b)
	if cmd.OnNotEqual {
		taken = !taken
	}
	if !taken {
		f.ip++
		return nil
	}
	target, err := findPosition(f.ctx.finalize.Commands, cmd.Target)
	if err != nil {
		return err
	}
	f.ip = target
	return nil
}

// findPosition locates the unique position command carrying label by
// linear scan.
func findPosition(cmds []Command, label string) (int, error) {
	for i, cmd := range cmds {
		if pos, ok := cmd.(PositionCommand); ok && pos.Label == label {
			return i, nil
		}
	}
	return 0, Internalf("no position %q in finalize body", label)
}

// execAwait resolves a Future by executing its finalize body through the
// call orchestration, recording it on the pending-futures queue while
// unresolved. The queue order must match the order in which the
// transition issued its deferred calls; that protocol is enforced
// upstream, not re-validated here.
func (c *Cursor) execAwait(f *Frame, cmd AwaitCommand, tx *Transaction) error {
	if f.step == 0 {
		c.record(len(c.stack)-1, "await "+cmd.Register.String())
		v, err := f.Load(cmd.Register)
		if err != nil {
			return err
		}
		fut, ok := v.(Future)
		if !ok {
			return Internalf("await on register %s holding a %s value", cmd.Register, v.Kind())
		}
		f.awaiting = len(c.futures)
		c.futures = append(c.futures, fut)
		target := &CallTarget{Program: fut.Program, Name: fut.Function}
		if err := c.doCall(target, fut.Args, true); err != nil {
			return err
		}
		f.step = 1
		return nil
	}

	if _, err := f.popPending(); err != nil {
		return err
	}
	// The awaited future is resolved; retire its queue entry. Any awaits
	// issued while it ran have already retired theirs, all at higher
	// positions, so the recorded position is still this future's.
	c.futures = append(c.futures[:f.awaiting], c.futures[f.awaiting+1:]...)
	f.step = 0
	f.ip++
	return nil
}
